package backend

import (
	"math"
	"time"

	"shield_go/internal/models"
	"shield_go/pkg/logger"
)

// StatusResponse é o corpo de GET /status
type StatusResponse struct {
	WeaponScore    float64  `json:"weapon_score"`
	WeaponLabel    string   `json:"weapon_label"`
	AudioScore     float64  `json:"audio_score"`
	PoseScore      float64  `json:"pose_score"`
	ProximityScore float64  `json:"proximity_score"`
	TotalScore     *float64 `json:"total_score"`
	Status         string   `json:"status"`
	ThreatMessage  string   `json:"threat_message"`
}

// ToAcquisition mapeia a resposta para o modelo de canais. O total/status do
// servidor são mantidos como avaliação autoritativa; se estiverem ausentes ou
// inválidos, Reported fica nil e o controlador agrega localmente.
func (s StatusResponse) ToAcquisition(ts time.Time) models.Acquisition {
	readings := models.ReadingSet{
		Weapon:    models.NewWeaponChannel(clampScore(models.ChannelWeapon, s.WeaponScore), s.WeaponLabel),
		Audio:     models.NewChannel(models.ChannelAudio, clampScore(models.ChannelAudio, s.AudioScore)),
		Pose:      models.NewChannel(models.ChannelPose, clampScore(models.ChannelPose, s.PoseScore)),
		Proximity: models.NewChannel(models.ChannelProximity, clampScore(models.ChannelProximity, s.ProximityScore)),
		Timestamp: ts,
	}

	acq := models.Acquisition{
		Readings:      readings,
		ThreatMessage: s.ThreatMessage,
	}

	if s.TotalScore == nil {
		logger.Warn("Resposta do backend sem total_score; agregando localmente")
		return acq
	}

	status, err := models.ParseStatus(s.Status)
	if err != nil {
		logger.Warnf("Status do backend ignorado: %v", err)
		return acq
	}

	total := int(math.Round(*s.TotalScore))
	if total < 0 {
		total = 0
	}
	acq.Reported = &models.Assessment{TotalScore: total, Status: status}
	return acq
}

// clampScore limita a pontuação a [0, máximo do canal]
func clampScore(t models.ChannelType, v float64) int {
	score := int(math.Round(v))
	if score < 0 {
		return 0
	}
	if max := models.MaxScore(t); score > max {
		logger.Debugf("Pontuação do canal %s acima do máximo (%d > %d)", t, score, max)
		return max
	}
	return score
}
