package threat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shield_go/internal/models"
)

func TestStatusFor_Boundaries(t *testing.T) {
	cases := []struct {
		total int
		want  models.Status
	}{
		{0, models.StatusSafe},
		{34, models.StatusSafe},
		{35, models.StatusWarning},
		{45, models.StatusWarning},
		{59, models.StatusWarning},
		{60, models.StatusDanger},
		{125, models.StatusDanger},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.total), "total=%d", tc.total)
	}
}

func TestAggregate_Scenarios(t *testing.T) {
	cases := []struct {
		name                    string
		weapon, audio, pose, px int
		total                   int
		status                  models.Status
	}{
		{"weapon e audio", 45, 35, 0, 0, 80, models.StatusDanger},
		{"somente proximidade", 0, 0, 0, 15, 15, models.StatusSafe},
		{"cenário médico", 0, 35, 20, 0, 55, models.StatusWarning},
		{"tudo limpo", 0, 0, 0, 0, 0, models.StatusSafe},
		{"assalto armado", 45, 0, 30, 0, 75, models.StatusDanger},
		{"somente arma", 45, 0, 0, 0, 45, models.StatusWarning},
		{"somente audio", 0, 35, 0, 0, 35, models.StatusWarning},
		{"arma, grito e multidão", 45, 35, 0, 15, 95, models.StatusDanger},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := models.NewReadingSet(tc.weapon, tc.audio, tc.pose, tc.px, time.Now())
			got := Aggregate(rs)
			assert.Equal(t, tc.total, got.TotalScore)
			assert.Equal(t, tc.status, got.Status)
		})
	}
}

func TestAggregate_IsPure(t *testing.T) {
	rs := models.NewReadingSet(45, 0, 20, 15, time.Now())
	first := Aggregate(rs)
	second := Aggregate(rs)

	assert.Equal(t, first, second)
	assert.Equal(t, 45, rs.Weapon.Score, "o ReadingSet não pode ser alterado")
}

func TestReasonsAndMessage(t *testing.T) {
	rs := models.NewReadingSet(45, 35, 0, 15, time.Now())
	assert.Equal(t, []string{"Weapon", "Scream", "Crowd"}, Reasons(rs))
	assert.Equal(t, "Weapon, Scream, Crowd", Message(rs))

	assert.Empty(t, Reasons(models.BaselineReadingSet()))
	assert.Equal(t, UnknownThreat, Message(models.BaselineReadingSet()))
}
