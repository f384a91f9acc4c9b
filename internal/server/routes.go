package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"shield_go/internal/api"
	"shield_go/internal/discovery"
	"shield_go/internal/models"
	"shield_go/internal/websocket"
	"shield_go/pkg/logger"
	"shield_go/pkg/utils"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() error {
	wsHandler := websocket.NewHandler(s.wsHub)

	apiRouter := api.NewRouter(api.Dependencies{
		Controller:    s.controller,
		Email:         s.backendClient,
		Contact:       s.contact,
		Video:         s.videoWatcher.Probe(),
		Notifications: s.wsHub,
	}, "/api", api.NewRateLimiter(s.config.Server.ControlRateLimit, s.config.Server.ControlBurst))
	apiRouter.Setup()

	videoProxy, err := s.newVideoProxy()
	if err != nil {
		return err
	}

	s.router.HandleFunc("/health", s.healthHandler)
	s.router.HandleFunc("/info", s.infoHandler)
	s.router.HandleFunc("/api/discover", s.discoverHandler)

	s.router.Handle("/ws", wsHandler)
	s.router.HandleFunc("/ws/health", wsHandler.GetHealthHandler())

	s.router.Handle("/api/", apiRouter.Handler())
	s.router.Handle("/video_feed", videoProxy)

	// Middlewares comuns aplicados uma única vez, inclusive para /api/*
	s.handler = api.DefaultMiddleware()(s.router)
	return nil
}

// newVideoProxy repassa /video_feed para o stream do backend sem buffer,
// para que o multipart chegue ao navegador quadro a quadro.
func (s *Server) newVideoProxy() (http.Handler, error) {
	target, err := url.Parse(s.config.VideoURL())
	if err != nil {
		return nil, fmt.Errorf("URL de vídeo inválida: %w", err)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.Out.URL.Path = target.Path
			r.Out.URL.RawPath = target.RawPath
			r.Out.URL.RawQuery = target.RawQuery
		},
		FlushInterval: -1,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Debugf("Falha ao repassar stream de vídeo: %v", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "stream de vídeo indisponível"})
		},
	}
	return proxy, nil
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	state := s.controller.Snapshot()

	plcStatus := "disabled"
	if s.plcService != nil {
		plcStatus = "offline"
		if s.plcService.IsRunning() {
			plcStatus = "ok"
		}
	}

	redisStatus := "disabled"
	if s.config.Redis.Enabled {
		redisStatus = "offline"
		if s.redisService.IsConnected() {
			redisStatus = "ok"
		}
	}

	discoveryStatus := "disabled"
	if s.discoveryService != nil {
		discoveryStatus = "offline"
		if s.discoveryService.IsRunning() {
			discoveryStatus = "ok"
		}
	}

	videoStatus := "offline"
	if s.videoWatcher.Probe().State().Available {
		videoStatus = "ok"
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"phase":     state.Phase,
		"backend":   state.Health,
		"services": map[string]string{
			"redis":     redisStatus,
			"plc":       plcStatus,
			"websocket": "ok",
			"discovery": discoveryStatus,
			"video":     videoStatus,
		},
	}

	// Aquisição degradada ou cache offline alteram o status geral
	if state.Degraded || redisStatus == "offline" {
		response["status"] = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()
	state := s.controller.Snapshot()

	response := map[string]interface{}{
		"name":        discovery.DisplayName,
		"version":     info.Version,
		"ip":          info.IP,
		"port":        info.Port,
		"websocket":   info.WebSocketURL,
		"api":         info.APIURL,
		"startTime":   info.StartTime,
		"uptime":      utils.FormatDuration(time.Since(info.StartTime)),
		"connections": info.Connections,
		"acquisition": map[string]interface{}{
			"armed": state.Armed,
			"mode":  state.Mode,
			"phase": state.Phase,
		},
		"backend": map[string]interface{}{
			"url":              s.backendClient.BaseURL(),
			"recomputeLocally": s.config.Backend.RecomputeLocally,
			"health":           state.Health,
		},
		"alerts": map[string]interface{}{
			"enabled":  s.dispatcher != nil,
			"mqtt":     s.mqttClient != nil,
			"cooldown": s.config.Alert.Cooldown.String(),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// discoverHandler fornece informações para descoberta manual
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"name":        discovery.DisplayName,
		"ip":          info.IP,
		"port":        info.Port,
		"wsUrl":       info.WebSocketURL,
		"apiUrl":      info.APIURL,
		"version":     info.Version,
		"wsEndpoint":  "/ws",
		"apiEndpoint": "/api",
		"videoFeed":   "/video_feed",
		"modes":       []models.Mode{models.ModeSimulation, models.ModeLiveBackend},
	}

	json.NewEncoder(w).Encode(response)
}
