package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shield_go/internal/models"
)

func TestLoadFile_DefaultValues(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, models.ModeSimulation, cfg.InitialMode())
	assert.True(t, cfg.Acquisition.ArmedOnStart)
	assert.Equal(t, 3*time.Second, cfg.Acquisition.SimulationInterval.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Acquisition.LiveInterval.Duration)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, "/status", cfg.Backend.StatusPath)
	assert.Equal(t, "http://localhost:5000/video_feed", cfg.VideoURL())
	assert.False(t, cfg.Backend.RecomputeLocally)
	assert.Equal(t, "safety_shield", cfg.Redis.Prefix)
	assert.Equal(t, 30*time.Second, cfg.Alert.Cooldown.Duration)
	assert.False(t, cfg.PLC.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile_FromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"port": 9090},
		"acquisition": {"mode": "live", "liveInterval": "250ms", "simulationInterval": 1000000000},
		"backend": {"baseUrl": "http://camera.local:5000/", "recomputeLocally": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, models.ModeLiveBackend, cfg.InitialMode())
	assert.Equal(t, 250*time.Millisecond, cfg.Acquisition.LiveInterval.Duration)
	assert.Equal(t, time.Second, cfg.Acquisition.SimulationInterval.Duration)
	assert.True(t, cfg.Backend.RecomputeLocally)
	assert.Equal(t, "http://camera.local:5000/video_feed", cfg.VideoURL())
	// Campos ausentes mantêm os padrões
	assert.Equal(t, "/status", cfg.Backend.StatusPath)
}

func TestLoadFile_InvalidMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"acquisition": {"mode": "replay"}}`), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend": {"timeout": "soon"}}`), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SHIELD_SERVER_PORT", "7070")
	t.Setenv("SHIELD_MODE", "live")
	t.Setenv("SHIELD_ARMED", "false")
	t.Setenv("SHIELD_SIM_SEED", "42")
	t.Setenv("SHIELD_BACKEND_URL", "http://10.0.0.5:5000")
	t.Setenv("SHIELD_REDIS_ENABLED", "false")
	t.Setenv("SHIELD_ALERT_EMAIL", "guard@example.com")
	t.Setenv("SHIELD_LOG_LEVEL", "debug")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, models.ModeLiveBackend, cfg.InitialMode())
	assert.False(t, cfg.Acquisition.ArmedOnStart)
	assert.Equal(t, int64(42), cfg.Acquisition.Seed)
	assert.Equal(t, "http://10.0.0.5:5000", cfg.Backend.BaseURL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "guard@example.com", cfg.Alert.EmergencyContact)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SHIELD_TEST_BAD_INT", "abc")
	assert.Equal(t, 5, getEnvInt("SHIELD_TEST_BAD_INT", 5))
	assert.Equal(t, "default", getEnv("SHIELD_TEST_UNSET", "default"))

	t.Setenv("SHIELD_TEST_BOOL", "true")
	assert.True(t, getEnvBool("SHIELD_TEST_BOOL", false))
}
