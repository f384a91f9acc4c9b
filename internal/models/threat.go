package models

import (
	"fmt"
	"strings"
	"time"
)

// Status é o nível de alerta tri-estado
type Status string

const (
	StatusSafe    Status = "SAFE"
	StatusWarning Status = "WARNING"
	StatusDanger  Status = "DANGER"
)

// ParseStatus valida o status informado pelo backend
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusSafe:
		return StatusSafe, nil
	case StatusWarning:
		return StatusWarning, nil
	case StatusDanger:
		return StatusDanger, nil
	}
	return "", fmt.Errorf("status desconhecido: %q", s)
}

// Assessment é o estado agregado derivado de um ReadingSet
type Assessment struct {
	TotalScore int    `json:"totalScore"`
	Status     Status `json:"status"`
}

// BaselineAssessment retorna o estado agregado zero/SAFE
func BaselineAssessment() Assessment {
	return Assessment{TotalScore: 0, Status: StatusSafe}
}

// Mode é a fonte de aquisição configurada para a sessão
type Mode string

const (
	ModeSimulation  Mode = "simulation"
	ModeLiveBackend Mode = "live"
)

// ParseMode aceita "simulation"/"live" (e os nomes longos SIMULATION/LIVE_BACKEND)
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "simulation", "sim":
		return ModeSimulation, nil
	case "live", "live_backend", "backend":
		return ModeLiveBackend, nil
	}
	return "", fmt.Errorf("modo de aquisição inválido: %q", s)
}

// Health é a conectividade do caminho de aquisição ao vivo
type Health string

const (
	// HealthNeutral é usado fora do modo ao vivo ou quando desarmado
	HealthNeutral     Health = "n/a"
	HealthOK          Health = "OK"
	HealthUnreachable Health = "UNREACHABLE"
)

// Phase é o estado da máquina do controlador de aquisição
type Phase string

const (
	PhaseDisarmed        Phase = "DISARMED"
	PhaseArmedSimulation Phase = "ARMED_SIMULATION"
	PhaseArmedLive       Phase = "ARMED_LIVE"
)

// Acquisition é o resultado de uma fonte de leitura em um tick.
// Reported é preenchido quando a fonte já traz o total/status autoritativo.
type Acquisition struct {
	Readings      ReadingSet  `json:"readings"`
	Reported      *Assessment `json:"reported,omitempty"`
	ThreatMessage string      `json:"threatMessage,omitempty"`
}

// DashboardState é o estado publicado para a camada de apresentação
type DashboardState struct {
	Armed         bool                     `json:"armed"`
	Mode          Mode                     `json:"mode"`
	Phase         Phase                    `json:"phase"`
	Readings      ReadingSet               `json:"readings"`
	Assessment    Assessment               `json:"assessment"`
	Severity      map[ChannelType]Severity `json:"severity"`
	Health        Health                   `json:"health"`
	// Pending indica que a fonte atual ainda não respondeu desde que o laço iniciou
	Pending       bool                     `json:"pending"`
	Degraded      bool                     `json:"degraded"`
	LastError     string                   `json:"lastError,omitempty"`
	ThreatMessage string                   `json:"threatMessage,omitempty"`
	Epoch         uint64                   `json:"epoch"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// SeverityMap calcula a faixa visual de cada canal
func SeverityMap(r ReadingSet) map[ChannelType]Severity {
	out := make(map[ChannelType]Severity, len(ChannelTypes))
	for _, ch := range r.Channels() {
		out[ch.Type] = SeverityFor(ch.Score)
	}
	return out
}

// Alert é um alerta de perigo despachado aos notificadores
type Alert struct {
	ID               string    `json:"id"`
	Score            int       `json:"score"`
	Status           Status    `json:"status"`
	Reasons          []string  `json:"reasons"`
	Message          string    `json:"message"`
	EmergencyContact string    `json:"emergencyContact,omitempty"`
	Mode             Mode      `json:"mode"`
	Timestamp        time.Time `json:"timestamp"`
}

// NotificationLevel é o tipo de notificação transitória (toast)
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// Notification é uma mensagem transitória exibida ao operador
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// VideoFeed é a referência ao stream de vídeo ao vivo
type VideoFeed struct {
	URL       string    `json:"url"`
	Available bool      `json:"available"`
	LastError string    `json:"lastError,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}
