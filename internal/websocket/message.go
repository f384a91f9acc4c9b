package websocket

import (
	"bytes"
	"encoding/json"
	"time"

	"shield_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

func header(msgType string) models.WebSocketMessage {
	return models.WebSocketMessage{Type: msgType, Timestamp: time.Now()}
}

// NewStateMessage cria uma nova mensagem de estado
func NewStateMessage(state models.DashboardState) *models.StateMessage {
	return &models.StateMessage{
		WebSocketMessage: header(models.MessageState),
		State:            state,
	}
}

// NewHealthMessage cria uma nova mensagem de saúde da conexão com o backend
func NewHealthMessage(state models.DashboardState) *models.HealthMessage {
	return &models.HealthMessage{
		WebSocketMessage: header(models.MessageHealth),
		Health:           state.Health,
		Degraded:         state.Degraded,
		LastError:        state.LastError,
	}
}

// NewVideoMessage cria uma nova mensagem de vídeo
func NewVideoMessage(feed models.VideoFeed) *models.VideoMessage {
	return &models.VideoMessage{
		WebSocketMessage: header(models.MessageVideo),
		Video:            feed,
	}
}

// NewAlertMessage cria uma nova mensagem de alerta
func NewAlertMessage(alert models.Alert) *models.AlertMessage {
	return &models.AlertMessage{
		WebSocketMessage: header(models.MessageAlert),
		Alert:            alert,
	}
}

// NewNotificationMessage cria uma nova mensagem de notificação
func NewNotificationMessage(n models.Notification) *models.NotificationMessage {
	return &models.NotificationMessage{
		WebSocketMessage: header(models.MessageNotification),
		Notification:     n,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	msg := header(models.MessageError)
	msg.Error = message
	msg.Data = map[string]string{"code": errorCode}
	return msg
}

// NewPingMessage cria o ping periódico do servidor
func NewPingMessage() *models.PingMessage {
	return &models.PingMessage{
		WebSocketMessage: header(models.MessagePing),
		Time:             time.Now().UnixMilli(),
	}
}

// CreatePongResponse cria uma resposta para um ping do cliente
func CreatePongResponse(pingTime int64) *models.PongMessage {
	return &models.PongMessage{
		WebSocketMessage: header(models.MessagePong),
		Time:             pingTime,
		ServerTime:       time.Now().UnixMilli(),
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente. Campos desconhecidos são rejeitados.
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&command)
	return command, err
}

// healthChanged indica se a saúde publicada mudou entre dois estados
func healthChanged(prev *models.DashboardState, next models.DashboardState) bool {
	if prev == nil {
		return true
	}
	return prev.Health != next.Health || prev.Degraded != next.Degraded || prev.LastError != next.LastError
}
