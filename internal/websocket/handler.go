package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"shield_go/pkg/logger"
)

// Upgrader do WebSocket; o painel pode ser servido de outra origem
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// Handler gerencia conexões WebSocket
type Handler struct {
	hub *Hub
}

// NewHandler cria um novo gerenciador de WebSocket
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
	}
}

// ServeHTTP implementa a interface http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWebSocket(w, r)
}

// HandleWebSocket gerencia requisições WebSocket
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("Erro ao fazer upgrade para WebSocket: %v", err)
		return
	}

	userAgent := r.UserAgent()
	ipAddress := getIPAddress(r)

	logger.Debugf("Nova conexão WebSocket de %s (%s)", ipAddress, userAgent)

	client := newClient(h.hub, conn, userAgent, ipAddress)

	select {
	case h.hub.register <- client:
	case <-h.hub.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// checkOrigin aceita todas as origens: o painel roda na rede local
func checkOrigin(r *http.Request) bool {
	return true
}

// getIPAddress extrai o endereço IP do cliente
func getIPAddress(r *http.Request) string {
	ipAddress := r.Header.Get("X-Real-IP")
	if ipAddress == "" {
		ipAddress = r.Header.Get("X-Forwarded-For")
	}
	if ipAddress == "" {
		ipAddress = r.RemoteAddr
	}
	return ipAddress
}

// GetHealthHandler retorna um handler com o estado do hub e do último estado
// difundido aos painéis
func (h *Handler) GetHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		stats := h.hub.Stats()
		status := "ok"
		if stats.Degraded || stats.DroppedMessages > 0 {
			status = "degraded"
		}

		response := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			HubStats
		}{
			Status:    status,
			Timestamp: time.Now(),
			HubStats:  stats,
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
