package models

import "time"

// Tipos de mensagem enviados pelo servidor
const (
	MessageWelcome      = "welcome"
	MessageState        = "state"
	MessageHealth       = "health"
	MessageVideo        = "video"
	MessageAlert        = "alert"
	MessageNotification = "notification"
	MessagePing         = "ping"
	MessagePong         = "pong"
	MessageError        = "error"
)

// Comandos aceitos dos clientes
const (
	CommandArm      = "arm"
	CommandDisarm   = "disarm"
	CommandSetMode  = "set_mode"
	CommandGetState = "get_state"
	CommandPing     = "ping"
)

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// HealthMessage é enviada quando a conectividade com o backend muda
type HealthMessage struct {
	WebSocketMessage
	Health    Health `json:"health"`
	Degraded  bool   `json:"degraded"`
	LastError string `json:"lastError,omitempty"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string                 `json:"type"`
	Params map[string]interface{} `json:"params,omitempty"`
	ID     string                 `json:"id,omitempty"`
}

// ClientCommand representa um comando recebido, já associado ao cliente
type ClientCommand struct {
	Command   string
	Params    map[string]interface{}
	RequestID string
	ClientID  string
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`
	ServerTime int64 `json:"serverTime"`
}

// StateMessage carrega o estado completo do painel
type StateMessage struct {
	WebSocketMessage
	State DashboardState `json:"state"`
}

// VideoMessage informa a referência e a disponibilidade do vídeo
type VideoMessage struct {
	WebSocketMessage
	Video VideoFeed `json:"video"`
}

// AlertMessage carrega um alerta de perigo despachado
type AlertMessage struct {
	WebSocketMessage
	Alert Alert `json:"alert"`
}

// NotificationMessage carrega uma notificação transitória para o operador
type NotificationMessage struct {
	WebSocketMessage
	Notification Notification `json:"notification"`
}

// PingMessage representa um ping enviado pelo servidor
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"`
}
