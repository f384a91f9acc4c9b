package plc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shield_go/internal/config"
	"shield_go/internal/models"
	"shield_go/pkg/utils"
)

type fakeWriter struct {
	mutex     sync.Mutex
	connected bool
	writes    [][]byte
	dbNumbers []int
	failNext  bool
}

func (f *fakeWriter) Connect() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.connected = true
	return nil
}

func (f *fakeWriter) Disconnect() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.connected = false
}

func (f *fakeWriter) IsConnected() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.connected
}

func (f *fakeWriter) WriteDataBlock(dbNumber int, startOffset int, data []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.failNext {
		f.failNext = false
		f.connected = false
		return errors.New("connection reset")
	}
	f.connected = true
	f.writes = append(f.writes, append([]byte(nil), data...))
	f.dbNumbers = append(f.dbNumbers, dbNumber)
	return nil
}

func (f *fakeWriter) Writes() [][]byte {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([][]byte(nil), f.writes...)
}

func TestEncodeState(t *testing.T) {
	state := models.DashboardState{
		Armed:      true,
		Mode:       models.ModeLiveBackend,
		Degraded:   true,
		Assessment: models.Assessment{TotalScore: 80, Status: models.StatusDanger},
	}

	block := EncodeState(state)
	require.Len(t, block, blockSize)
	assert.Equal(t, int16(2), utils.BytesToInt16(block[offsetStatus:]))
	assert.Equal(t, int16(80), utils.BytesToInt16(block[offsetTotal:]))
	assert.Equal(t, byte(flagArmed|flagDegraded|flagLive), block[offsetFlags])

	safe := EncodeState(models.DashboardState{Assessment: models.BaselineAssessment()})
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, safe)

	warning := EncodeState(models.DashboardState{Armed: true, Assessment: models.Assessment{TotalScore: 45, Status: models.StatusWarning}})
	assert.Equal(t, int16(1), utils.BytesToInt16(warning[offsetStatus:]))
	assert.Equal(t, byte(flagArmed), warning[offsetFlags])
}

func testPLCConfig() config.PLCConfig {
	return config.PLCConfig{
		Enabled:    true,
		DBNumber:   20,
		UpdateRate: config.Duration{Duration: 5 * time.Millisecond},
	}
}

func TestServiceWritesLatestStateOnce(t *testing.T) {
	writer := &fakeWriter{}
	service := NewPLCServiceWithClient(testPLCConfig(), writer)
	require.NoError(t, service.Start())
	defer service.Stop()

	state := models.DashboardState{Armed: true, Assessment: models.Assessment{TotalScore: 80, Status: models.StatusDanger}}
	service.HandleState(state)

	require.Eventually(t, func() bool { return len(writer.Writes()) == 1 }, time.Second, 5*time.Millisecond)

	// Estado igual não é reescrito
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, writer.Writes(), 1)
	assert.Equal(t, 20, writer.dbNumbers[0])

	service.HandleState(models.DashboardState{Assessment: models.BaselineAssessment()})
	require.Eventually(t, func() bool { return len(writer.Writes()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestServiceRetriesAfterWriteFailure(t *testing.T) {
	writer := &fakeWriter{failNext: true}
	service := NewPLCServiceWithClient(testPLCConfig(), writer)
	require.NoError(t, service.Start())
	defer service.Stop()

	service.HandleState(models.DashboardState{Armed: true, Assessment: models.Assessment{TotalScore: 45, Status: models.StatusWarning}})
	require.Eventually(t, func() bool { return len(writer.Writes()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDisabledServiceIgnoresStates(t *testing.T) {
	writer := &fakeWriter{}
	cfg := testPLCConfig()
	cfg.Enabled = false
	service := NewPLCServiceWithClient(cfg, writer)

	require.NoError(t, service.Start())
	assert.False(t, service.IsRunning())
	service.HandleState(models.DashboardState{Armed: true})
	service.Stop()
	assert.Empty(t, writer.Writes())
}
