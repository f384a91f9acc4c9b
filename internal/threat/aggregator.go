// Package threat reúne a regra de consenso que transforma as leituras dos
// quatro canais em uma pontuação total e um nível de alerta.
package threat

import (
	"strings"

	"shield_go/internal/models"
)

// Limiares de consenso: um único indicador forte chega a WARNING, apenas
// indicadores combinados chegam a DANGER.
const (
	WarningThreshold = 35
	DangerThreshold  = 60
)

// UnknownThreat é a mensagem usada quando nenhum canal justifica o alerta
const UnknownThreat = "Unknown Threat"

// StatusFor retorna o nível de alerta para uma pontuação total
func StatusFor(total int) models.Status {
	switch {
	case total >= DangerThreshold:
		return models.StatusDanger
	case total >= WarningThreshold:
		return models.StatusWarning
	default:
		return models.StatusSafe
	}
}

// Total soma as pontuações dos quatro canais
func Total(r models.ReadingSet) int {
	return r.Weapon.Score + r.Audio.Score + r.Pose.Score + r.Proximity.Score
}

// Aggregate calcula o estado agregado de um ReadingSet
func Aggregate(r models.ReadingSet) models.Assessment {
	total := Total(r)
	return models.Assessment{TotalScore: total, Status: StatusFor(total)}
}

// Reasons lista as causas ativas na ordem Weapon, Scream, Pose, Crowd
func Reasons(r models.ReadingSet) []string {
	reasons := make([]string, 0, 4)
	if r.Weapon.Score > 0 {
		reasons = append(reasons, "Weapon")
	}
	if r.Audio.Score > 0 {
		reasons = append(reasons, "Scream")
	}
	if r.Pose.Score > 0 {
		reasons = append(reasons, "Pose")
	}
	if r.Proximity.Score > 0 {
		reasons = append(reasons, "Crowd")
	}
	return reasons
}

// Message junta as causas ativas em uma frase curta
func Message(r models.ReadingSet) string {
	reasons := Reasons(r)
	if len(reasons) == 0 {
		return UnknownThreat
	}
	return strings.Join(reasons, ", ")
}
