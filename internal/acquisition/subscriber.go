package acquisition

import (
	"context"
	"sync/atomic"

	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// Estados pendentes por handler antes de descartar os mais antigos
const stateBufferSize = 16

// stateSubscriber entrega estados a um handler em uma goroutine dedicada,
// preservando a ordem de publicação
type stateSubscriber struct {
	handler StateHandler
	states  chan models.DashboardState
	dropped atomic.Int64
}

// offer enfileira o estado; com a fila cheia o estado mais antigo é descartado.
// Só é chamado com publishLock travado, então há um único produtor.
func (s *stateSubscriber) offer(state models.DashboardState) {
	for {
		select {
		case s.states <- state:
			return
		default:
		}

		select {
		case <-s.states:
			if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
				logger.Warnf("Handler de estado lento: %d estados descartados", n)
			}
		default:
		}
	}
}

func (s *stateSubscriber) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-s.states:
			if ctx.Err() != nil {
				return
			}
			s.handler(state)
		}
	}
}
