package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shield_go/internal/acquisition"
	"shield_go/internal/backend"
	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// Mensagens exibidas ao operador
const (
	msgInvalidEmail  = "Please enter a valid email address"
	msgEmailUpdated  = "Emergency contact updated"
	msgEmailFailed   = "Failed to update emergency contact"
	emailCallTimeout = 5 * time.Second
)

// Controller é o subconjunto do controlador de aquisição usado pela API
type Controller interface {
	Arm()
	Disarm()
	ParseMode(s string) (models.Mode, error)
	SetMode(mode models.Mode) error
	Snapshot() models.DashboardState
}

// EmailUpdater encaminha o contato de emergência ao backend
type EmailUpdater interface {
	UpdateEmail(ctx context.Context, email string) (string, error)
}

// ContactStore guarda o contato de emergência da sessão
type ContactStore interface {
	Get() string
	Set(email string)
}

// VideoStatus expõe o último resultado da sonda de vídeo
type VideoStatus interface {
	State() models.VideoFeed
}

// NotificationBroadcaster entrega notificações aos clientes WebSocket
type NotificationBroadcaster interface {
	BroadcastNotification(n models.Notification)
}

// Dependencies agrupa os serviços usados pelos handlers
type Dependencies struct {
	Controller    Controller
	Email         EmailUpdater
	Contact       ContactStore
	Video         VideoStatus
	Notifications NotificationBroadcaster
}

// Handler contém os handlers HTTP para a API
type Handler struct {
	deps Dependencies
}

// NewHandler cria um novo handler de API
func NewHandler(deps Dependencies) *Handler {
	return &Handler{deps: deps}
}

// GetState retorna o estado atual do painel
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.deps.Controller.Snapshot())
}

// Arm arma o monitoramento
func (h *Handler) Arm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.deps.Controller.Arm()
	h.respondWithJSON(w, http.StatusOK, h.deps.Controller.Snapshot())
}

// Disarm desarma o monitoramento
func (h *Handler) Disarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.deps.Controller.Disarm()
	h.respondWithJSON(w, http.StatusOK, h.deps.Controller.Snapshot())
}

// SetMode troca a fonte de aquisição
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	mode, err := h.deps.Controller.ParseMode(req.Mode)
	if err == nil {
		err = h.deps.Controller.SetMode(mode)
	}
	if err != nil {
		if errors.Is(err, acquisition.ErrInvalidMode) {
			h.respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.deps.Controller.Snapshot())
}

// UpdateEmergencyContact valida o e-mail e o encaminha ao backend.
// E-mail vazio é rejeitado sem chamada de rede.
func (h *Handler) UpdateEmergencyContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		h.notify(w, http.StatusBadRequest, models.Notification{Level: models.NotificationError, Message: msgInvalidEmail})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), emailCallTimeout)
	defer cancel()

	if _, err := h.deps.Email.UpdateEmail(ctx, email); err != nil {
		logger.Warnf("Erro ao atualizar contato de emergência: %v", err)
		status := http.StatusBadGateway
		if errors.Is(err, backend.ErrEmptyEmail) {
			status = http.StatusBadRequest
		}
		h.notify(w, status, models.Notification{Level: models.NotificationError, Message: msgEmailFailed})
		return
	}

	if h.deps.Contact != nil {
		h.deps.Contact.Set(email)
	}
	h.notify(w, http.StatusOK, models.Notification{
		Level:   models.NotificationSuccess,
		Message: fmt.Sprintf("%s: %s", msgEmailUpdated, email),
	})
}

// GetVideo retorna a referência ao stream de vídeo e o último resultado da sonda
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if h.deps.Video == nil {
		h.respondWithError(w, http.StatusNotFound, "Vídeo não configurado")
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.deps.Video.State())
}

// notify responde com a notificação e a replica para os clientes WebSocket
func (h *Handler) notify(w http.ResponseWriter, code int, n models.Notification) {
	if h.deps.Notifications != nil {
		h.deps.Notifications.BroadcastNotification(n)
	}
	h.respondWithJSON(w, code, n)
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
