package backend

import (
	"context"
	"sync"
	"time"

	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// VideoOpener abre o stream de vídeo; implementado por *Client
type VideoOpener interface {
	VideoFeed() models.VideoFeed
	OpenVideo(ctx context.Context) error
}

// VideoProbe verifica o stream de vídeo e avisa apenas nas transições
// disponível -> indisponível (OnFailure) e indisponível -> disponível (OnRecover).
type VideoProbe struct {
	opener VideoOpener

	OnFailure func(feed models.VideoFeed, err error)
	OnRecover func(feed models.VideoFeed)

	mutex sync.RWMutex
	state models.VideoFeed
	// Nenhuma verificação ainda: a primeira sempre dispara um callback
	probed bool
	now    func() time.Time
}

// NewVideoProbe cria uma nova sonda de vídeo
func NewVideoProbe(opener VideoOpener) *VideoProbe {
	return &VideoProbe{
		opener: opener,
		state:  opener.VideoFeed(),
		now:    time.Now,
	}
}

// Probe executa uma verificação do stream e atualiza o estado
func (p *VideoProbe) Probe(ctx context.Context) models.VideoFeed {
	err := p.opener.OpenVideo(ctx)

	p.mutex.Lock()
	wasAvailable := p.state.Available
	first := !p.probed
	p.probed = true

	p.state.CheckedAt = p.now()
	p.state.Available = err == nil
	if err != nil {
		p.state.LastError = err.Error()
	} else {
		p.state.LastError = ""
	}
	feed := p.state
	p.mutex.Unlock()

	switch {
	case err != nil && (wasAvailable || first):
		logger.Warnf("Stream de vídeo indisponível: %v", err)
		if p.OnFailure != nil {
			p.OnFailure(feed, err)
		}
	case err == nil && (!wasAvailable || first):
		logger.Info("Stream de vídeo disponível")
		if p.OnRecover != nil {
			p.OnRecover(feed)
		}
	}

	return feed
}

// State retorna o último resultado da sonda
func (p *VideoProbe) State() models.VideoFeed {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.state
}

// VideoWatcher executa a sonda em intervalo fixo, independente do polling de status
type VideoWatcher struct {
	probe    *VideoProbe
	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewVideoWatcher cria o laço de verificação do vídeo
func NewVideoWatcher(probe *VideoProbe, interval, timeout time.Duration) *VideoWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &VideoWatcher{
		probe:    probe,
		interval: interval,
		timeout:  timeout,
	}
}

// Start inicia o laço; a primeira verificação é imediata
func (w *VideoWatcher) Start(parent context.Context) {
	w.ctx, w.cancel = context.WithCancel(parent)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.runProbe()
		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.runProbe()
			}
		}
	}()
}

func (w *VideoWatcher) runProbe() {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()
	w.probe.Probe(ctx)
}

// Stop encerra o laço e aguarda a verificação em andamento
func (w *VideoWatcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Probe retorna a sonda observada
func (w *VideoWatcher) Probe() *VideoProbe {
	return w.probe
}
