package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// Controller é o subconjunto do controlador de aquisição acionado pelos comandos dos clientes
type Controller interface {
	Arm()
	Disarm()
	ParseMode(s string) (models.Mode, error)
	SetMode(mode models.Mode) error
	Snapshot() models.DashboardState
}

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	controller Controller

	// Último estado e vídeo enviados, usados para novos clientes e para detectar mudanças de saúde
	lastState *models.DashboardState
	lastVideo *models.VideoFeed
	stateLock sync.RWMutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
		droppedMessages    int64
	}
	statsLock sync.Mutex

	pingInterval time.Duration

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client, 16),
		broadcast:    make(chan []byte, 256),
		commands:     make(chan models.ClientCommand, 100),
		pingInterval: 5 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetController conecta o hub ao controlador de aquisição
func (h *Hub) SetController(c Controller) {
	h.controller = c
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	defer close(h.done)
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter conexões ativas
	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			h.sendInitialDataToClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			h.mu.RLock()
			deadClients := make([]*Client, 0, 4)
			for client := range h.clients {
				if !client.trySend(message) {
					// Canal do cliente está cheio, marcar para desconexão
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range deadClients {
				logger.Warnf("Cliente WebSocket %s lento, desconectando", client.id)
				h.removeClient(client)
			}

		case cmd := <-h.commands:
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.logStats()

		case <-pingTicker.C:
			h.sendPingToAllClients()
		}
	}
}

// removeClient desregistra um cliente e fecha seu canal de envio
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
		logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
	}
}

func (h *Hub) logStats() {
	h.statsLock.Lock()
	elapsed := time.Since(h.stats.lastStatsReset).Seconds()
	if elapsed > 0 {
		h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
	}
	h.stats.messagesSinceReset = 0
	h.stats.lastStatsReset = time.Now()
	mps := h.stats.messagesPerSecond
	total := h.stats.totalMessages
	h.statsLock.Unlock()

	logger.Debugf("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
		h.ClientCount(), mps, total)
}

// enqueue coloca uma mensagem serializada na fila de broadcast sem bloquear o chamador
func (h *Hub) enqueue(message interface{}, kind string) {
	jsonMessage, err := SerializeMessage(message)
	if err != nil {
		logger.Errorf("Erro ao serializar mensagem de %s: %v", kind, err)
		return
	}

	select {
	case h.broadcast <- jsonMessage:
	case <-h.ctx.Done():
	default:
		h.statsLock.Lock()
		h.stats.droppedMessages++
		h.statsLock.Unlock()
		logger.Warnf("Fila de broadcast cheia, mensagem de %s descartada", kind)
	}
}

// HubStats resume a atividade do hub e o último estado difundido
type HubStats struct {
	Clients           int     `json:"clients"`
	TotalClients      int64   `json:"totalClients"`
	TotalMessages     int64   `json:"totalMessages"`
	DroppedMessages   int64   `json:"droppedMessages"`
	MessagesPerSecond float64 `json:"messagesPerSecond"`

	Phase         models.Phase  `json:"phase,omitempty"`
	ThreatStatus  models.Status `json:"threatStatus,omitempty"`
	BackendHealth models.Health `json:"backendHealth,omitempty"`
	Degraded      bool          `json:"degraded"`
	Video         *bool         `json:"videoAvailable,omitempty"`
}

// Stats retorna as estatísticas atuais do hub
func (h *Hub) Stats() HubStats {
	h.statsLock.Lock()
	stats := HubStats{
		TotalClients:      h.stats.totalClients,
		TotalMessages:     h.stats.totalMessages,
		DroppedMessages:   h.stats.droppedMessages,
		MessagesPerSecond: h.stats.messagesPerSecond,
	}
	h.statsLock.Unlock()

	stats.Clients = h.ClientCount()

	h.stateLock.RLock()
	if h.lastState != nil {
		stats.Phase = h.lastState.Phase
		stats.ThreatStatus = h.lastState.Assessment.Status
		stats.BackendHealth = h.lastState.Health
		stats.Degraded = h.lastState.Degraded
	}
	if h.lastVideo != nil {
		available := h.lastVideo.Available
		stats.Video = &available
	}
	h.stateLock.RUnlock()

	return stats
}

// BroadcastState envia o estado do painel e, quando a saúde muda, uma mensagem de saúde
func (h *Hub) BroadcastState(state models.DashboardState) {
	h.stateLock.Lock()
	changed := healthChanged(h.lastState, state)
	h.lastState = &state
	h.stateLock.Unlock()

	h.enqueue(NewStateMessage(state), "estado")
	if changed {
		h.enqueue(NewHealthMessage(state), "saúde")
	}
}

// HandleState permite registrar o hub como handler de estado do controlador
func (h *Hub) HandleState(state models.DashboardState) {
	h.BroadcastState(state)
}

// BroadcastVideo envia o estado do stream de vídeo
func (h *Hub) BroadcastVideo(feed models.VideoFeed) {
	h.stateLock.Lock()
	h.lastVideo = &feed
	h.stateLock.Unlock()

	h.enqueue(NewVideoMessage(feed), "vídeo")
}

// BroadcastAlert envia um alerta de perigo
func (h *Hub) BroadcastAlert(alert models.Alert) {
	h.enqueue(NewAlertMessage(alert), "alerta")
}

// BroadcastNotification envia uma notificação transitória
func (h *Hub) BroadcastNotification(n models.Notification) {
	h.enqueue(NewNotificationMessage(n), "notificação")
}

// Name implementa alert.Notifier
func (h *Hub) Name() string {
	return "websocket"
}

// Notify implementa alert.Notifier
func (h *Hub) Notify(ctx context.Context, alert models.Alert) error {
	h.BroadcastAlert(alert)
	return nil
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	client := h.getClientByID(cmd.ClientID)

	if h.controller == nil {
		if client != nil {
			client.sendError("unavailable", "Controlador indisponível")
		}
		return
	}

	switch cmd.Command {
	case models.CommandArm:
		h.controller.Arm()
	case models.CommandDisarm:
		h.controller.Disarm()
	case models.CommandSetMode:
		if err := h.setMode(cmd.Params); err != nil {
			logger.Warnf("Comando set_mode rejeitado: %v", err)
			if client != nil {
				client.sendError("invalid_mode", err.Error())
			}
		}
	case models.CommandGetState:
		if client != nil {
			client.sendMessage(NewStateMessage(h.controller.Snapshot()))
		}
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
		if client != nil {
			client.sendError("unknown_command", "Comando desconhecido: "+cmd.Command)
		}
	}
}

var errMissingMode = errors.New("parâmetro mode ausente")

func (h *Hub) setMode(params map[string]interface{}) error {
	raw, ok := params["mode"].(string)
	if !ok {
		return errMissingMode
	}
	mode, err := h.controller.ParseMode(raw)
	if err != nil {
		return err
	}
	return h.controller.SetMode(mode)
}

// sendInitialDataToClient envia boas-vindas, estado atual e vídeo para um novo cliente
func (h *Hub) sendInitialDataToClient(client *Client) {
	welcome := header(models.MessageWelcome)
	welcome.Data = map[string]interface{}{
		"message":  "Conectado ao Safety Shield Monitor",
		"clientId": client.id,
	}
	client.sendMessage(welcome)

	var state *models.DashboardState
	if h.controller != nil {
		snapshot := h.controller.Snapshot()
		state = &snapshot
	} else {
		h.stateLock.RLock()
		state = h.lastState
		h.stateLock.RUnlock()
	}
	if state != nil {
		client.sendMessage(NewStateMessage(*state))
		client.sendMessage(NewHealthMessage(*state))
	}

	h.stateLock.RLock()
	video := h.lastVideo
	h.stateLock.RUnlock()
	if video != nil {
		client.sendMessage(NewVideoMessage(*video))
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
	}
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		client.close()
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	if h.ClientCount() == 0 {
		return
	}
	h.enqueue(NewPingMessage(), "ping")
}
