// Package acquisition controla o ciclo armado/desarmado e o laço de leitura
// das fontes de sinal (simulação ou backend ao vivo).
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"shield_go/internal/models"
	"shield_go/internal/threat"
	"shield_go/pkg/logger"
)

// ErrInvalidMode indica um modo de aquisição desconhecido ou sem fonte registrada
var ErrInvalidMode = errors.New("modo de aquisição inválido")

// Source produz uma aquisição por tick
type Source interface {
	Name() string
	Next(ctx context.Context) (models.Acquisition, error)
}

// StateHandler recebe cada estado publicado do painel
type StateHandler func(state models.DashboardState)

// Options configura o controlador
type Options struct {
	Sources   map[models.Mode]Source
	Intervals map[models.Mode]time.Duration
	Mode      models.Mode
	// Ignora o total/status informado pelo backend e agrega localmente
	RecomputeLocally bool
	MeterProvider    metric.MeterProvider
	Now              func() time.Time
}

// Controller é o único dono do estado publicado: leituras, avaliação,
// saúde da conexão e fase armada/desarmada.
type Controller struct {
	sources          map[models.Mode]Source
	intervals        map[models.Mode]time.Duration
	recomputeLocally bool
	metrics          *controllerMetrics
	now              func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mutex      sync.RWMutex
	state      models.DashboardState
	loopCancel context.CancelFunc
	loopDone   chan struct{}

	consecutiveErrors int

	// Serializa a captura dos estados para que cada handler os receba em ordem
	publishLock  sync.Mutex
	handlers     []*stateSubscriber
	handlersLock sync.RWMutex
	handlersWG   sync.WaitGroup
}

// NewController cria um controlador desarmado no modo informado
func NewController(opts Options) (*Controller, error) {
	if _, ok := opts.Sources[opts.Mode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}
	for mode := range opts.Sources {
		if opts.Intervals[mode] <= 0 {
			return nil, fmt.Errorf("intervalo inválido para o modo %s", mode)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		sources:          opts.Sources,
		intervals:        opts.Intervals,
		recomputeLocally: opts.RecomputeLocally,
		metrics:          newControllerMetrics(opts.MeterProvider),
		now:              now,
		ctx:              ctx,
		cancel:           cancel,
	}
	c.state = c.baselineState(opts.Mode)
	c.state.UpdatedAt = now()

	return c, nil
}

// ParseMode converte o texto recebido pela API em um modo com fonte registrada
func (c *Controller) ParseMode(s string) (models.Mode, error) {
	mode, err := models.ParseMode(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	if _, ok := c.sources[mode]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return mode, nil
}

// RegisterStateHandler registra uma função para receber atualizações de estado.
// Cada handler roda em sua própria goroutine: um handler lento não atrasa o
// laço de leitura nem os demais handlers.
func (c *Controller) RegisterStateHandler(handler StateHandler) {
	sub := &stateSubscriber{
		handler: handler,
		states:  make(chan models.DashboardState, stateBufferSize),
	}

	c.handlersLock.Lock()
	c.handlers = append(c.handlers, sub)
	c.handlersLock.Unlock()

	c.handlersWG.Add(1)
	go func() {
		defer c.handlersWG.Done()
		sub.run(c.ctx)
	}()
}

// Snapshot retorna uma cópia do estado atual
func (c *Controller) Snapshot() models.DashboardState {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return copyState(c.state)
}

// Arm inicia o monitoramento no modo atual. Idempotente.
func (c *Controller) Arm() {
	c.mutex.Lock()
	if c.state.Armed {
		c.mutex.Unlock()
		return
	}

	c.state.Armed = true
	c.state.Phase = phaseFor(true, c.state.Mode)
	c.startLoopLocked()
	logger.Infof("Monitoramento armado (modo: %s, época: %d)", c.state.Mode, c.state.Epoch)
	c.mutex.Unlock()

	c.publish()
}

// Disarm para o laço e volta ao estado base. Idempotente.
func (c *Controller) Disarm() {
	c.mutex.Lock()
	if !c.state.Armed {
		c.mutex.Unlock()
		return
	}

	c.stopLoopLocked()
	epoch := c.state.Epoch
	c.state = c.baselineState(c.state.Mode)
	c.state.Epoch = epoch
	c.state.UpdatedAt = c.now()
	c.consecutiveErrors = 0
	logger.Info("Monitoramento desarmado")
	c.mutex.Unlock()

	c.publish()
}

// SetMode troca a fonte de aquisição. Com o sistema armado o laço anterior é
// cancelado, as leituras voltam ao estado base e um novo laço inicia.
func (c *Controller) SetMode(mode models.Mode) error {
	if _, ok := c.sources[mode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	c.mutex.Lock()
	if c.state.Mode == mode {
		c.mutex.Unlock()
		return nil
	}

	previous := c.state.Mode
	armed := c.state.Armed
	if armed {
		c.stopLoopLocked()
	}

	epoch := c.state.Epoch
	c.state = c.baselineState(mode)
	c.state.Epoch = epoch
	c.state.Armed = armed
	c.state.Phase = phaseFor(armed, mode)
	c.state.UpdatedAt = c.now()
	c.consecutiveErrors = 0

	logger.Infof("Modo de aquisição alterado: %s -> %s", previous, mode)
	if armed {
		// A primeira leitura da nova fonte é quem publica
		c.startLoopLocked()
		c.mutex.Unlock()
		return nil
	}
	c.mutex.Unlock()

	c.publish()
	return nil
}

// Stop encerra o controlador e aguarda o laço ativo terminar
func (c *Controller) Stop() {
	c.mutex.Lock()
	done := c.loopDone
	c.stopLoopLocked()
	c.mutex.Unlock()

	c.cancel()
	if done != nil {
		<-done
	}
	c.handlersWG.Wait()
}

// startLoopLocked inicia um laço em uma nova época. Deve ser chamado com mutex travado.
func (c *Controller) startLoopLocked() {
	c.state.Epoch++
	c.state.Pending = true
	epoch := c.state.Epoch
	mode := c.state.Mode
	source := c.sources[mode]
	interval := c.intervals[mode]

	ctx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.loopCancel = cancel
	c.loopDone = done

	go c.run(ctx, done, epoch, mode, source, interval)
}

// stopLoopLocked cancela o laço ativo sem aguardá-lo. Um tick em andamento
// terá o resultado descartado pela verificação de época.
func (c *Controller) stopLoopLocked() {
	if c.loopCancel != nil {
		c.loopCancel()
		c.loopCancel = nil
		c.loopDone = nil
	}
}

// run executa o laço de leitura de uma época
func (c *Controller) run(ctx context.Context, done chan struct{}, epoch uint64, mode models.Mode, source Source, interval time.Duration) {
	defer close(done)

	logger.Debugf("Laço de aquisição iniciado (fonte: %s, intervalo: %v, época: %d)", source.Name(), interval, epoch)

	// Primeira leitura imediata
	c.processTick(ctx, epoch, mode, source)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debugf("Laço de aquisição encerrado (época: %d)", epoch)
			return
		case <-ticker.C:
			// Síncrono: enquanto um tick está pendente o ticker descarta os seguintes
			c.processTick(ctx, epoch, mode, source)
		}
	}
}

// processTick executa uma leitura e aplica o resultado se a época ainda for atual
func (c *Controller) processTick(ctx context.Context, epoch uint64, mode models.Mode, source Source) {
	acq, err := source.Next(ctx)

	c.mutex.Lock()
	if ctx.Err() != nil || epoch != c.state.Epoch || !c.state.Armed || mode != c.state.Mode {
		c.mutex.Unlock()
		c.metrics.stale(context.Background(), mode)
		logger.Debugf("Resultado da época %d descartado", epoch)
		return
	}

	if err != nil {
		c.applyFailureLocked(mode, err)
		c.mutex.Unlock()
		c.metrics.failure(ctx, mode)
		c.publish()
		return
	}

	c.applySuccessLocked(mode, acq)
	c.mutex.Unlock()
	c.metrics.tick(ctx, mode)
	c.publish()
}

func (c *Controller) applySuccessLocked(mode models.Mode, acq models.Acquisition) {
	if c.consecutiveErrors > 0 {
		logger.Infof("Comunicação com a fonte %s restaurada após %d falhas", mode, c.consecutiveErrors)
		c.consecutiveErrors = 0
	}

	readings := acq.Readings
	if readings.Timestamp.IsZero() {
		readings.Timestamp = c.now()
	}

	c.state.Readings = readings
	c.state.Assessment = c.assess(acq)
	c.state.Severity = models.SeverityMap(readings)
	c.state.ThreatMessage = acq.ThreatMessage
	c.state.Health = healthFor(mode, true)
	c.state.Pending = false
	c.state.Degraded = false
	c.state.LastError = ""
	c.state.UpdatedAt = c.now()
}

func (c *Controller) applyFailureLocked(mode models.Mode, err error) {
	c.consecutiveErrors++
	if c.consecutiveErrors == 1 {
		logger.Warnf("Falha na leitura da fonte %s: %v", mode, err)
	} else if c.consecutiveErrors%20 == 0 {
		logger.Warnf("Fonte %s continua indisponível (%d falhas consecutivas): %v", mode, c.consecutiveErrors, err)
	}

	// Último estado conhecido é mantido, apenas marcado como degradado
	c.state.Health = healthFor(mode, false)
	c.state.Pending = false
	c.state.Degraded = true
	c.state.LastError = err.Error()
	c.state.UpdatedAt = c.now()
}

// assess usa a avaliação informada pela fonte, salvo quando o recálculo local está ativo
func (c *Controller) assess(acq models.Acquisition) models.Assessment {
	local := threat.Aggregate(acq.Readings)
	if acq.Reported == nil || c.recomputeLocally {
		return local
	}

	reported := *acq.Reported
	if reported != local {
		logger.Debugf("Avaliação do backend (%d %s) difere da regra local (%d %s)",
			reported.TotalScore, reported.Status, local.TotalScore, local.Status)
	}
	return reported
}

// publish enfileira o estado mais recente para todos os handlers sem bloquear
func (c *Controller) publish() {
	c.publishLock.Lock()
	defer c.publishLock.Unlock()

	state := c.Snapshot()

	c.handlersLock.RLock()
	defer c.handlersLock.RUnlock()

	for _, sub := range c.handlers {
		sub.offer(state)
	}
}

func (c *Controller) baselineState(mode models.Mode) models.DashboardState {
	readings := models.BaselineReadingSet()
	return models.DashboardState{
		Armed:      false,
		Mode:       mode,
		Phase:      models.PhaseDisarmed,
		Readings:   readings,
		Assessment: models.BaselineAssessment(),
		Severity:   models.SeverityMap(readings),
		Health:     models.HealthNeutral,
	}
}

func phaseFor(armed bool, mode models.Mode) models.Phase {
	if !armed {
		return models.PhaseDisarmed
	}
	if mode == models.ModeLiveBackend {
		return models.PhaseArmedLive
	}
	return models.PhaseArmedSimulation
}

// healthFor retorna a saúde da conexão; fora do modo ao vivo é sempre neutra
func healthFor(mode models.Mode, ok bool) models.Health {
	if mode != models.ModeLiveBackend {
		return models.HealthNeutral
	}
	if ok {
		return models.HealthOK
	}
	return models.HealthUnreachable
}

func copyState(s models.DashboardState) models.DashboardState {
	severity := make(map[models.ChannelType]models.Severity, len(s.Severity))
	for k, v := range s.Severity {
		severity[k] = v
	}
	s.Severity = severity
	return s
}
