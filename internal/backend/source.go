package backend

import (
	"context"

	"shield_go/internal/models"
)

// StatusSource adapta o Client para a interface de fonte do controlador
type StatusSource struct {
	client *Client
}

// NewStatusSource cria a fonte de leituras do modo ao vivo
func NewStatusSource(client *Client) *StatusSource {
	return &StatusSource{client: client}
}

// Name implementa acquisition.Source
func (s *StatusSource) Name() string {
	return "live"
}

// Next implementa acquisition.Source
func (s *StatusSource) Next(ctx context.Context) (models.Acquisition, error) {
	return s.client.PollStatus(ctx)
}
