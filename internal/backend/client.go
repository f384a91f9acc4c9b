// Package backend consome o backend de detecção: status dos canais,
// stream de vídeo e atualização do contato de emergência.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"shield_go/internal/config"
	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// ErrUnreachable indica falha de rede ou resposta inválida do backend
var ErrUnreachable = errors.New("backend inalcançável")

// ErrEmptyEmail é retornado antes de qualquer chamada de rede
var ErrEmptyEmail = errors.New("e-mail de emergência vazio")

// Client encapsula as chamadas HTTP ao backend de detecção
type Client struct {
	httpClient *resty.Client
	config     config.BackendConfig
	baseURL    string
	now        func() time.Time
}

// NewClient cria um novo cliente do backend. Sem retentativas: cada tick é uma tentativa independente.
func NewClient(cfg config.BackendConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout.Duration).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		config:     cfg,
		baseURL:    baseURL,
		now:        time.Now,
	}
}

// PollStatus consulta GET /status e converte a resposta em uma aquisição.
// Qualquer falha é devolvida como ErrUnreachable.
func (c *Client) PollStatus(ctx context.Context) (models.Acquisition, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.config.StatusPath)
	if err != nil {
		return models.Acquisition{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if !resp.IsSuccess() {
		return models.Acquisition{}, fmt.Errorf("%w: status HTTP %d", ErrUnreachable, resp.StatusCode())
	}

	var status StatusResponse
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return models.Acquisition{}, fmt.Errorf("%w: resposta inválida: %v", ErrUnreachable, err)
	}

	return status.ToAcquisition(c.now()), nil
}

// UpdateEmail envia o novo contato de emergência (POST /update-email).
// Dispara e esquece: sem retentativa, o resultado vira uma notificação.
func (c *Client) UpdateEmail(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyEmail
	}

	var result struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"email": email}).
		Post(c.config.EmailPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	// Corpo pode não ser JSON em respostas de erro do proxy
	_ = json.Unmarshal(resp.Body(), &result)

	if !resp.IsSuccess() {
		if result.Error != "" {
			return "", fmt.Errorf("backend rejeitou o e-mail: %s", result.Error)
		}
		return "", fmt.Errorf("backend rejeitou o e-mail: status HTTP %d", resp.StatusCode())
	}

	if result.Message == "" {
		result.Message = "Email updated"
	}

	logger.Infof("Contato de emergência atualizado no backend: %s", email)
	return result.Message, nil
}

// VideoFeed retorna a referência ao stream de vídeo ao vivo
func (c *Client) VideoFeed() models.VideoFeed {
	return models.VideoFeed{URL: c.baseURL + c.config.VideoPath}
}

// OpenVideo tenta abrir o stream de vídeo e fecha a conexão logo em seguida.
// O corpo não é lido: o stream é consumido por referência, não interpretado.
func (c *Client) OpenVideo(ctx context.Context) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "*/*").
		Get(c.config.VideoPath)
	if err != nil {
		return fmt.Errorf("erro ao abrir stream de vídeo: %w", err)
	}
	if body := resp.RawBody(); body != nil {
		body.Close()
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("stream de vídeo respondeu com status HTTP %d", resp.StatusCode())
	}
	return nil
}

// BaseURL retorna a URL base normalizada do backend
func (c *Client) BaseURL() string {
	return c.baseURL
}
