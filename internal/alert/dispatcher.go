// Package alert despacha alertas de perigo para os notificadores configurados
// (MQTT, Redis, WebSocket e log), respeitando um intervalo mínimo entre alertas.
package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"shield_go/internal/models"
	"shield_go/internal/threat"
	"shield_go/pkg/logger"
)

// Notifier entrega um alerta a um destino
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert models.Alert) error
}

// NotifierFunc adapta uma função à interface Notifier
type NotifierFunc struct {
	name string
	fn   func(ctx context.Context, alert models.Alert) error
}

// NewNotifierFunc cria um Notifier a partir de uma função
func NewNotifierFunc(name string, fn func(ctx context.Context, alert models.Alert) error) *NotifierFunc {
	return &NotifierFunc{name: name, fn: fn}
}

// Name implementa Notifier
func (n *NotifierFunc) Name() string { return n.name }

// Notify implementa Notifier
func (n *NotifierFunc) Notify(ctx context.Context, alert models.Alert) error {
	return n.fn(ctx, alert)
}

// Dispatcher observa os estados publicados e dispara um alerta quando o
// status é DANGER e o intervalo mínimo desde o último alerta já passou.
type Dispatcher struct {
	limiter   *rate.Limiter
	contact   *Contact
	timeout   time.Duration
	now       func() time.Time
	notifiers []Notifier
	lock      sync.RWMutex
	wg        sync.WaitGroup
}

// NewDispatcher cria um despachante com o intervalo mínimo entre alertas
func NewDispatcher(cooldown time.Duration, contact *Contact) *Dispatcher {
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	if contact == nil {
		contact = NewContact("")
	}

	return &Dispatcher{
		limiter: rate.NewLimiter(limit, 1),
		contact: contact,
		timeout: 5 * time.Second,
		now:     time.Now,
	}
}

// AddNotifier registra um destino de alertas
func (d *Dispatcher) AddNotifier(n Notifier) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.notifiers = append(d.notifiers, n)
	logger.Infof("Notificador de alertas registrado: %s", n.Name())
}

// HandleState avalia o estado publicado; pode ser registrado como StateHandler
func (d *Dispatcher) HandleState(state models.DashboardState) {
	if !state.Armed || state.Assessment.Status != models.StatusDanger {
		return
	}

	now := d.now()
	if !d.limiter.AllowN(now, 1) {
		return
	}

	alert := d.Build(state, now)
	logger.Warnf("ALERTA DE PERIGO: %s (pontuação: %d)", alert.Message, alert.Score)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dispatch(alert)
	}()
}

// Build monta o alerta a partir do estado publicado
func (d *Dispatcher) Build(state models.DashboardState, ts time.Time) models.Alert {
	return models.Alert{
		ID:               uuid.New().String(),
		Score:            state.Assessment.TotalScore,
		Status:           state.Assessment.Status,
		Reasons:          threat.Reasons(state.Readings),
		Message:          threat.Message(state.Readings),
		EmergencyContact: d.contact.Get(),
		Mode:             state.Mode,
		Timestamp:        ts,
	}
}

// dispatch entrega o alerta a cada notificador; a falha de um não impede os demais
func (d *Dispatcher) dispatch(alert models.Alert) {
	d.lock.RLock()
	notifiers := make([]Notifier, len(d.notifiers))
	copy(notifiers, d.notifiers)
	d.lock.RUnlock()

	for _, n := range notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := n.Notify(ctx, alert); err != nil {
			logger.Errorf("Erro ao enviar alerta %s via %s: %v", alert.ID, n.Name(), err)
		}
		cancel()
	}
}

// Wait aguarda os despachos em andamento
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Contact guarda o contato de emergência da sessão
type Contact struct {
	mutex sync.RWMutex
	email string
}

// NewContact cria o contato com o valor inicial da configuração
func NewContact(email string) *Contact {
	return &Contact{email: email}
}

// Get retorna o e-mail atual
func (c *Contact) Get() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.email
}

// Set substitui o e-mail atual
func (c *Contact) Set(email string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.email = email
}

// LogNotifier registra o alerta no log da aplicação
type LogNotifier struct{}

// Name implementa Notifier
func (LogNotifier) Name() string { return "log" }

// Notify implementa Notifier
func (LogNotifier) Notify(ctx context.Context, alert models.Alert) error {
	contact := alert.EmergencyContact
	if contact == "" {
		contact = "nenhum"
	}
	logger.Warnf("Alerta %s: %s | pontuação %d | modo %s | contato %s",
		alert.ID, alert.Message, alert.Score, alert.Mode, contact)
	return nil
}
