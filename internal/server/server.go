package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shield_go/internal/acquisition"
	"shield_go/internal/alert"
	"shield_go/internal/backend"
	"shield_go/internal/config"
	"shield_go/internal/discovery"
	"shield_go/internal/models"
	"shield_go/internal/plc"
	"shield_go/internal/redis"
	"shield_go/internal/simulation"
	"shield_go/internal/websocket"
	"shield_go/pkg/logger"
	"shield_go/pkg/utils"
)

// Version é a versão anunciada em /info e no mDNS
const Version = "1.0.0"

// Server encapsula o servidor HTTP com todos os componentes
type Server struct {
	config           *config.Config
	httpServer       *http.Server
	router           *http.ServeMux
	handler          http.Handler
	controller       *acquisition.Controller
	backendClient    *backend.Client
	videoWatcher     *backend.VideoWatcher
	dispatcher       *alert.Dispatcher
	contact          *alert.Contact
	mqttClient       *alert.MQTTClient
	redisService     *redis.Service
	plcService       *plc.PLCService
	wsHub            *websocket.Hub
	discoveryService *discovery.DiscoveryService
	serverInfo       ServerInfo
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor
func NewServer(cfg *config.Config) (*Server, error) {
	server := &Server{
		config: cfg,
		router: http.NewServeMux(),
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   Version,
			Port:      cfg.Server.Port,
		},
	}

	ip, err := discovery.LocalIP()
	if err != nil {
		ip = "localhost"
	}
	server.serverInfo.IP = ip
	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	if err := server.initComponents(); err != nil {
		return nil, err
	}

	if err := server.setupRoutes(); err != nil {
		return nil, err
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes do servidor
func (s *Server) initComponents() error {
	s.wsHub = websocket.NewHub()
	go s.wsHub.Run()

	s.redisService = redis.NewService(s.config.Redis)

	// Fontes de aquisição
	s.backendClient = backend.NewClient(s.config.Backend)
	controller, err := acquisition.NewController(acquisition.Options{
		Sources: map[models.Mode]acquisition.Source{
			models.ModeSimulation:  simulation.NewGenerator(s.config.Acquisition.Seed),
			models.ModeLiveBackend: backend.NewStatusSource(s.backendClient),
		},
		Intervals: map[models.Mode]time.Duration{
			models.ModeSimulation:  s.config.Acquisition.SimulationInterval.Duration,
			models.ModeLiveBackend: s.config.Acquisition.LiveInterval.Duration,
		},
		Mode:             s.config.InitialMode(),
		RecomputeLocally: s.config.Backend.RecomputeLocally,
	})
	if err != nil {
		return fmt.Errorf("erro ao inicializar controlador de aquisição: %w", err)
	}
	s.controller = controller
	s.wsHub.SetController(controller)

	controller.RegisterStateHandler(s.wsHub.HandleState)
	controller.RegisterStateHandler(s.redisService.HandleState)

	if s.config.PLC.Enabled {
		s.plcService = plc.NewPLCService(s.config.PLC)
		controller.RegisterStateHandler(s.plcService.HandleState)
	}

	// Alertas de perigo
	s.contact = alert.NewContact(s.config.Alert.EmergencyContact)
	if s.config.Alert.Enabled {
		s.dispatcher = alert.NewDispatcher(s.config.Alert.Cooldown.Duration, s.contact)
		s.dispatcher.AddNotifier(alert.LogNotifier{})
		s.dispatcher.AddNotifier(s.wsHub)
		s.dispatcher.AddNotifier(s.redisService)

		if s.config.MQTT.Enabled {
			mqttClient, err := alert.NewMQTTClient(s.config.MQTT)
			if err != nil {
				// Não abortar: os demais notificadores continuam ativos
				logger.Warnf("Alertas MQTT indisponíveis: %v", err)
			} else {
				s.mqttClient = mqttClient
				s.dispatcher.AddNotifier(alert.NewMQTTNotifier(mqttClient, s.config.MQTT.Topic, s.config.MQTT.QoS))
			}
		}

		controller.RegisterStateHandler(s.dispatcher.HandleState)
	}

	// Sonda do vídeo, independente do polling de status
	probe := backend.NewVideoProbe(s.backendClient)
	// A própria sonda registra as transições no log
	probe.OnFailure = func(feed models.VideoFeed, err error) {
		s.wsHub.BroadcastVideo(feed)
	}
	probe.OnRecover = func(feed models.VideoFeed) {
		s.wsHub.BroadcastVideo(feed)
	}
	s.videoWatcher = backend.NewVideoWatcher(probe,
		s.config.Backend.VideoProbeInterval.Duration, s.config.Backend.Timeout.Duration)

	if s.config.Discovery.Enabled {
		s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port, Version)
	}

	return nil
}

// StartServices inicia os serviços de fundo sem abrir a porta HTTP
func (s *Server) StartServices() {
	if s.discoveryService != nil {
		if err := s.discoveryService.Start(); err != nil {
			// Não abortar operação se falhar
			logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		}
	}

	if s.plcService != nil {
		if err := s.plcService.Start(); err != nil {
			logger.Errorf("Erro ao iniciar serviço PLC: %v", err)
		}
	}

	s.videoWatcher.Start(context.Background())

	if s.config.Acquisition.ArmedOnStart {
		s.controller.Arm()
	}
}

// Start inicia o servidor e todos os serviços
func (s *Server) Start() error {
	s.StartServices()
	s.logServerInfo()

	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// Handler retorna o handler HTTP raiz com os middlewares aplicados
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Shutdown encerra graciosamente o servidor e todos os serviços. Os produtores
// param antes dos consumidores para que nenhum estado chegue a um serviço fechado.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
	}

	s.videoWatcher.Stop()
	s.controller.Stop()

	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.plcService != nil {
		s.plcService.Stop()
	}
	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}

	s.wsHub.Shutdown()
	s.redisService.Shutdown()

	logger.Info("Shutdown completo")
	return nil
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("            Safety Shield Monitor              ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Iniciado em: %s", utils.FormatDateTimeMs(s.serverInfo.StartTime))
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("Backend: %s (modo inicial: %s)", s.backendClient.BaseURL(), s.config.InitialMode())
	if s.discoveryService != nil {
		logger.Infof("mDNS: %s.%s.%s",
			s.discoveryService.GetInstanceName(),
			discovery.ServiceType,
			discovery.ServiceDomain)
	}
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
