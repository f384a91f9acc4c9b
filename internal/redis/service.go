// Package redis mantém o último estado do painel no Redis (com TTL) e
// publica estados e alertas via pub/sub para consumidores externos.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shield_go/internal/config"
	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

const reconnectInterval = 10 * time.Second

// Service gerencia a conexão e operações com o Redis
type Service struct {
	store     Store
	prefix    string
	ttl       time.Duration
	enabled   bool
	connected bool
	lastPing  time.Time
	mutex     sync.RWMutex
	now       func() time.Time
}

// NewService cria um novo serviço Redis. Sem conexão o serviço segue em modo offline.
func NewService(cfg config.RedisConfig) *Service {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{prefix: cfg.Prefix, now: time.Now}
	}
	return NewServiceWithStore(NewRedisStore(cfg), cfg)
}

// NewServiceWithStore cria o serviço sobre um Store já construído
func NewServiceWithStore(store Store, cfg config.RedisConfig) *Service {
	service := &Service{
		store:   store,
		prefix:  cfg.Prefix,
		ttl:     cfg.SnapshotTTL.Duration,
		enabled: true,
		now:     time.Now,
	}

	if err := service.TestConnection(context.Background()); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
	}
	return service
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection(ctx context.Context) error {
	if !s.enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := s.store.Ping(ctx)

	s.mutex.Lock()
	s.lastPing = s.now()
	s.connected = err == nil
	s.mutex.Unlock()

	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}
	logger.Info("Conexão com o Redis estabelecida")
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.enabled
}

// ready indica se a operação deve ir ao Redis, tentando reconectar periodicamente
func (s *Service) ready(ctx context.Context) bool {
	if !s.enabled {
		return false
	}

	s.mutex.RLock()
	connected := s.connected
	retry := s.now().Sub(s.lastPing) >= reconnectInterval
	s.mutex.RUnlock()

	if connected {
		return true
	}
	if !retry {
		return false
	}
	return s.TestConnection(ctx) == nil
}

func (s *Service) markOffline(err error) {
	s.mutex.Lock()
	wasConnected := s.connected
	s.connected = false
	s.lastPing = s.now()
	s.mutex.Unlock()

	if wasConnected {
		logger.Warnf("Redis indisponível, entrando em modo offline: %v", err)
	}
}

// FormatKey formata uma chave com o prefixo configurado
func (s *Service) FormatKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

// WriteState grava o último estado (com TTL) e o publica no canal de estado
func (s *Service) WriteState(ctx context.Context, state models.DashboardState) error {
	if !s.ready(ctx) {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("erro ao serializar estado: %w", err)
	}

	key := s.FormatKey("state")
	if err := s.store.Set(ctx, key, string(data), s.ttl); err != nil {
		s.markOffline(err)
		return fmt.Errorf("erro ao escrever estado no Redis: %w", err)
	}
	if err := s.store.Publish(ctx, key, string(data)); err != nil {
		s.markOffline(err)
		return fmt.Errorf("erro ao publicar estado no Redis: %w", err)
	}
	return nil
}

// GetState lê o último estado gravado
func (s *Service) GetState(ctx context.Context) (*models.DashboardState, error) {
	if !s.ready(ctx) {
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}

	data, err := s.store.Get(ctx, s.FormatKey("state"))
	if err != nil {
		return nil, fmt.Errorf("erro ao obter estado: %w", err)
	}

	var state models.DashboardState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("erro ao decodificar estado: %w", err)
	}
	return &state, nil
}

// HandleState grava cada estado publicado pelo controlador
func (s *Service) HandleState(state models.DashboardState) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.WriteState(ctx, state); err != nil {
		logger.Debugf("Estado não gravado no Redis: %v", err)
	}
}

// Name implementa alert.Notifier
func (s *Service) Name() string {
	return "redis"
}

// Notify publica o alerta no canal de alertas
func (s *Service) Notify(ctx context.Context, alert models.Alert) error {
	if !s.ready(ctx) {
		return nil
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("erro ao serializar alerta: %w", err)
	}

	if err := s.store.Publish(ctx, s.FormatKey("alerts"), string(data)); err != nil {
		s.markOffline(err)
		return fmt.Errorf("erro ao publicar alerta no Redis: %w", err)
	}
	return nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}
	s.connected = false
}
