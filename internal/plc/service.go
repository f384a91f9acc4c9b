// Package plc espelha o estado do painel em um bloco de dados de um PLC S7,
// para acionar sirene e sinaleiro no local monitorado.
package plc

import (
	"bytes"
	"context"
	"sync"
	"time"

	"shield_go/internal/config"
	"shield_go/internal/models"
	"shield_go/pkg/logger"
	"shield_go/pkg/utils"
)

// Layout do DB espelhado
const (
	offsetStatus = 0 // INT: 0 SAFE, 1 WARNING, 2 DANGER
	offsetTotal  = 2 // INT: pontuação total
	offsetFlags  = 4 // BYTE: bit0 armado, bit1 degradado, bit2 modo ao vivo
	blockSize    = 6
)

const (
	flagArmed    = 1 << 0
	flagDegraded = 1 << 1
	flagLive     = 1 << 2
)

// BlockWriter é o subconjunto do cliente S7 usado pelo serviço
type BlockWriter interface {
	Connect() error
	Disconnect()
	IsConnected() bool
	WriteDataBlock(dbNumber int, startOffset int, data []byte) error
}

// PLCService gerencia a comunicação com o PLC
type PLCService struct {
	client          BlockWriter
	config          config.PLCConfig
	ctx             context.Context
	cancel          context.CancelFunc
	updateFrequency time.Duration
	stateSubscribe  chan models.DashboardState
	lastState       *models.DashboardState
	lastWritten     []byte
	mutex           sync.RWMutex
	running         bool
	wg              sync.WaitGroup
}

// NewPLCService cria um novo serviço de PLC
func NewPLCService(cfg config.PLCConfig) *PLCService {
	return NewPLCServiceWithClient(cfg, NewS7Client(cfg))
}

// NewPLCServiceWithClient cria o serviço sobre um cliente já construído
func NewPLCServiceWithClient(cfg config.PLCConfig, client BlockWriter) *PLCService {
	ctx, cancel := context.WithCancel(context.Background())

	frequency := cfg.UpdateRate.Duration
	if frequency <= 0 {
		frequency = 500 * time.Millisecond
	}

	return &PLCService{
		client:          client,
		config:          cfg,
		ctx:             ctx,
		cancel:          cancel,
		updateFrequency: frequency,
		stateSubscribe:  make(chan models.DashboardState, 10),
	}
}

// Start inicia o serviço de comunicação com o PLC. Falha de conexão inicial
// não impede o início: o laço tenta reconectar a cada escrita.
func (s *PLCService) Start() error {
	if !s.config.Enabled {
		logger.Info("Serviço PLC desabilitado por configuração")
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		logger.Warnf("PLC indisponível na inicialização: %v", err)
	}

	s.wg.Add(1)
	go s.runUpdateLoop()

	s.running = true
	logger.Infof("Serviço PLC iniciado (DB%d)", s.config.DBNumber)
	return nil
}

// Stop para o serviço de comunicação com o PLC
func (s *PLCService) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.running = false
	s.mutex.Unlock()

	s.cancel()
	s.wg.Wait()
	s.client.Disconnect()
	logger.Info("Serviço PLC parado")
}

// IsRunning verifica se o serviço está em execução
func (s *PLCService) IsRunning() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.running
}

// HandleState recebe os estados publicados pelo controlador
func (s *PLCService) HandleState(state models.DashboardState) {
	if !s.IsRunning() {
		return
	}

	select {
	case s.stateSubscribe <- state:
	default:
		logger.Warn("Canal de estado para PLC está cheio, descartando atualização")
	}
}

// runUpdateLoop guarda o último estado e o escreve no PLC a cada ciclo
func (s *PLCService) runUpdateLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.updateFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case state := <-s.stateSubscribe:
			s.mutex.Lock()
			s.lastState = &state
			s.mutex.Unlock()

		case <-ticker.C:
			s.mutex.RLock()
			state := s.lastState
			s.mutex.RUnlock()

			if state != nil {
				s.writeState(*state)
			}
		}
	}
}

// writeState escreve o bloco quando ele difere do último enviado com sucesso
func (s *PLCService) writeState(state models.DashboardState) {
	block := EncodeState(state)

	s.mutex.RLock()
	unchanged := s.lastWritten != nil && bytes.Equal(s.lastWritten, block)
	s.mutex.RUnlock()
	if unchanged && s.client.IsConnected() {
		return
	}

	if err := s.client.WriteDataBlock(s.config.DBNumber, 0, block); err != nil {
		logger.Debugf("Falha ao escrever estado no PLC: %v", err)
		return
	}

	s.mutex.Lock()
	s.lastWritten = block
	s.mutex.Unlock()
}

// EncodeState converte o estado no layout do DB espelhado
func EncodeState(state models.DashboardState) []byte {
	block := make([]byte, blockSize)

	copy(block[offsetStatus:], utils.Int16ToBytes(statusCode(state.Assessment.Status)))
	copy(block[offsetTotal:], utils.Int16ToBytes(utils.ClampInt16(state.Assessment.TotalScore)))

	var flags byte
	if state.Armed {
		flags |= flagArmed
	}
	if state.Degraded {
		flags |= flagDegraded
	}
	if state.Mode == models.ModeLiveBackend {
		flags |= flagLive
	}
	block[offsetFlags] = flags

	return block
}

func statusCode(status models.Status) int16 {
	switch status {
	case models.StatusWarning:
		return 1
	case models.StatusDanger:
		return 2
	default:
		return 0
	}
}
