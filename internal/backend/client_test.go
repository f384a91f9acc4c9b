package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shield_go/internal/config"
	"shield_go/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(config.BackendConfig{
		BaseURL:    srv.URL + "/",
		StatusPath: "/status",
		VideoPath:  "/video_feed",
		EmailPath:  "/update-email",
		Timeout:    config.Duration{Duration: 500 * time.Millisecond},
	})
	return client, srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestPollStatusMapsReadings(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"weapon_score":    45,
			"weapon_label":    "knife",
			"audio_score":     35,
			"pose_score":      0,
			"proximity_score": 0,
			"total_score":     80,
			"status":          "DANGER",
			"threat_message":  "Weapon: knife",
		})
	})

	acq, err := client.PollStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 45, acq.Readings.Weapon.Score)
	assert.Equal(t, "knife", acq.Readings.Weapon.Label)
	assert.Equal(t, models.LabelDistressKeyword, acq.Readings.Audio.Label)
	assert.Equal(t, models.LabelPoseNormal, acq.Readings.Pose.Label)
	assert.Equal(t, "Weapon: knife", acq.ThreatMessage)
	require.NotNil(t, acq.Reported)
	assert.Equal(t, models.Assessment{TotalScore: 80, Status: models.StatusDanger}, *acq.Reported)
	assert.False(t, acq.Readings.Timestamp.IsZero())
}

func TestPollStatusWeaponLabelFollowsScore(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"weapon_score": 0,
			"weapon_label": "knife",
			"pose_score":   30,
			"total_score":  30,
			"status":       "SAFE",
		})
	})

	acq, err := client.PollStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LabelNoWeapon, acq.Readings.Weapon.Label)
	assert.Equal(t, models.LabelSurrender, acq.Readings.Pose.Label)
}

func TestPollStatusInvalidStatusLeavesAssessmentToCaller(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"audio_score": 35,
			"total_score": 35,
			"status":      "PANIC",
		})
	})

	acq, err := client.PollStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, acq.Reported)
	assert.Equal(t, 35, acq.Readings.Audio.Score)
}

func TestPollStatusMissingTotal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"proximity_score": 15})
	})

	acq, err := client.PollStatus(context.Background())
	require.NoError(t, err)
	assert.Nil(t, acq.Reported)
}

func TestPollStatusClampsScores(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"weapon_score":    90,
			"audio_score":     -5,
			"proximity_score": 15,
			"total_score":     105,
			"status":          "DANGER",
		})
	})

	acq, err := client.PollStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.WeaponDetectedScore, acq.Readings.Weapon.Score)
	assert.Equal(t, 0, acq.Readings.Audio.Score)
	assert.Equal(t, models.LabelListening, acq.Readings.Audio.Label)
}

func TestPollStatusUnreachable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("{not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			_, err := client.PollStatus(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnreachable))
		})
	}
}

func TestPollStatusConnectionRefused(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.PollStatus(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestPollStatusTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	_, err := client.PollStatus(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestUpdateEmail(t *testing.T) {
	var received map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/update-email", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Email updated", "email": received["email"]})
	})

	msg, err := client.UpdateEmail(context.Background(), " guard@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Email updated", msg)
	assert.Equal(t, "guard@example.com", received["email"])
}

func TestUpdateEmailEmptyMakesNoRequest(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.UpdateEmail(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyEmail)
	assert.False(t, called)
}

func TestUpdateEmailRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No email provided"})
	})

	_, err := client.UpdateEmail(context.Background(), "guard@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No email provided")
}

func TestVideoFeedURL(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, srv.URL+"/video_feed", client.VideoFeed().URL)
}

func TestStatusSource(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"proximity_score": 15, "total_score": 15, "status": "SAFE"})
	})

	source := NewStatusSource(client)
	assert.Equal(t, "live", source.Name())

	acq, err := source.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LabelCrowding, acq.Readings.Proximity.Label)
}
