package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shield_go/internal/config"
	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"weapon_score":0,"audio_score":0,"pose_score":0,"proximity_score":0,"total_score":0,"status":"SAFE"}`))
	})
	mux.HandleFunc("/video_feed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		w.Write([]byte("--frame\r\n"))
	})

	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)
	return backend
}

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()

	t.Setenv("SHIELD_CONFIG", t.TempDir()+"/missing.json")
	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Backend.BaseURL = backendURL
	cfg.Acquisition.ArmedOnStart = false
	cfg.Acquisition.SimulationInterval = config.Duration{Duration: time.Hour}
	cfg.Acquisition.Seed = 7
	cfg.Redis.Enabled = false
	cfg.Discovery.Enabled = false
	cfg.PLC.Enabled = false
	cfg.MQTT.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv, ts
}

func getJSON(t *testing.T, url string) map[string]interface{} {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthReportsDisabledServices(t *testing.T) {
	backend := newBackend(t)
	_, ts := newTestServer(t, testConfig(t, backend.URL))

	body := getJSON(t, ts.URL+"/health")

	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, string(models.PhaseDisarmed), body["phase"])
	services := body["services"].(map[string]interface{})
	assert.Equal(t, "disabled", services["redis"])
	assert.Equal(t, "disabled", services["plc"])
	assert.Equal(t, "disabled", services["discovery"])
}

func TestInfoAndDiscover(t *testing.T) {
	backend := newBackend(t)
	_, ts := newTestServer(t, testConfig(t, backend.URL))

	info := getJSON(t, ts.URL+"/info")
	assert.Equal(t, "Safety Shield Monitor", info["name"])
	assert.Equal(t, Version, info["version"])
	assert.NotEmpty(t, info["uptime"])
	assert.Equal(t, backend.URL, info["backend"].(map[string]interface{})["url"])

	discover := getJSON(t, ts.URL+"/api/discover")
	assert.Equal(t, "/ws", discover["wsEndpoint"])
	assert.Equal(t, "/video_feed", discover["videoFeed"])
}

func TestArmOnStartPublishesSimulationState(t *testing.T) {
	backend := newBackend(t)
	cfg := testConfig(t, backend.URL)
	cfg.Acquisition.ArmedOnStart = true

	srv, ts := newTestServer(t, cfg)
	srv.StartServices()

	require.Eventually(t, func() bool {
		return srv.controller.Snapshot().Epoch > 0
	}, time.Second, 10*time.Millisecond)

	body := getJSON(t, ts.URL+"/api/state")
	assert.Equal(t, true, body["armed"])
	assert.Equal(t, string(models.PhaseArmedSimulation), body["phase"])
}

func TestControlRoutesReachController(t *testing.T) {
	backend := newBackend(t)
	srv, ts := newTestServer(t, testConfig(t, backend.URL))

	resp, err := http.Post(ts.URL+"/api/arm", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, srv.controller.Snapshot().Armed)

	resp, err = http.Post(ts.URL+"/api/disarm", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.False(t, srv.controller.Snapshot().Armed)
}

func TestVideoFeedIsProxied(t *testing.T) {
	backend := newBackend(t)
	_, ts := newTestServer(t, testConfig(t, backend.URL))

	resp, err := http.Get(ts.URL + "/video_feed")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "multipart/x-mixed-replace")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\n", string(data))
}

func TestVideoFeedBackendDown(t *testing.T) {
	backend := newBackend(t)
	url := backend.URL
	backend.Close()

	_, ts := newTestServer(t, testConfig(t, url))

	resp, err := http.Get(ts.URL + "/video_feed")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCommonMiddlewareAppliedOnce(t *testing.T) {
	backend := newBackend(t)
	_, ts := newTestServer(t, testConfig(t, backend.URL))

	for _, path := range []string{"/health", "/api/state"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, []string{"*"}, resp.Header.Values("Access-Control-Allow-Origin"), path)
	}

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/arm", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketUpgradeThroughMiddleware(t *testing.T) {
	backend := newBackend(t)
	_, ts := newTestServer(t, testConfig(t, backend.URL))

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), models.MessageWelcome)
}

func TestVideoFailureLoggedOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/video_feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	require.NoError(t, logger.EnableFileLogging(dir, "video"))

	srv, _ := newTestServer(t, testConfig(t, backend.URL))
	srv.StartServices()

	probe := srv.videoWatcher.Probe()
	require.Eventually(t, func() bool {
		return !probe.State().CheckedAt.IsZero()
	}, 2*time.Second, 5*time.Millisecond)
	srv.videoWatcher.Stop()

	// Fecha os arquivos e volta a registrar só no terminal
	logger.Sync()
	logger.SetFormat("console")

	matches, err := filepath.Glob(filepath.Join(dir, "video_*[0-9].log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(data), "Stream de vídeo indisponível"))
}
