package models

import "time"

// ChannelType identifica um dos quatro canais de sinal de ameaça
type ChannelType string

const (
	ChannelWeapon    ChannelType = "weapon"
	ChannelAudio     ChannelType = "audio"
	ChannelPose      ChannelType = "pose"
	ChannelProximity ChannelType = "proximity"
)

// ChannelTypes lista os canais na ordem de exibição
var ChannelTypes = []ChannelType{ChannelWeapon, ChannelAudio, ChannelPose, ChannelProximity}

// Pontuações fixas de cada causa
const (
	WeaponDetectedScore  = 45
	DistressKeywordScore = 35
	FallDetectedScore    = 20
	SurrenderScore       = 30
	CrowdingScore        = 15
)

// Rótulos de cada causa
const (
	LabelNoWeapon        = "None"
	LabelWeaponDetected  = "Weapon Detected"
	LabelListening       = "Listening..."
	LabelDistressKeyword = "Distress Keyword"
	LabelPoseNormal      = "Normal"
	LabelFallDetected    = "Fall Detected"
	LabelSurrender       = "Surrender"
	LabelProximitySafe   = "Safe"
	LabelCrowding        = "Crowding"
)

// Channel representa a leitura de um canal: pontuação e causa legível
type Channel struct {
	Type  ChannelType `json:"type"`
	Score int         `json:"score"`
	Label string      `json:"label"`
}

// ReadingSet é um retrato atômico dos quatro canais produzido por um único tick
type ReadingSet struct {
	Weapon    Channel   `json:"weapon"`
	Audio     Channel   `json:"audio"`
	Pose      Channel   `json:"pose"`
	Proximity Channel   `json:"proximity"`
	Timestamp time.Time `json:"timestamp"`
}

// NeutralLabel retorna o rótulo de um canal com pontuação zero
func NeutralLabel(t ChannelType) string {
	switch t {
	case ChannelWeapon:
		return LabelNoWeapon
	case ChannelAudio:
		return LabelListening
	case ChannelPose:
		return LabelPoseNormal
	case ChannelProximity:
		return LabelProximitySafe
	}
	return ""
}

// MaxScore retorna a contribuição máxima de um canal
func MaxScore(t ChannelType) int {
	switch t {
	case ChannelWeapon:
		return WeaponDetectedScore
	case ChannelAudio:
		return DistressKeywordScore
	case ChannelPose:
		return SurrenderScore
	case ChannelProximity:
		return CrowdingScore
	}
	return 0
}

// LabelFor retorna o rótulo da causa para a pontuação informada.
// Pose: exatamente 30 é sempre "Surrender", qualquer outro valor não nulo é "Fall Detected".
func LabelFor(t ChannelType, score int) string {
	if score <= 0 {
		return NeutralLabel(t)
	}

	switch t {
	case ChannelWeapon:
		return LabelWeaponDetected
	case ChannelAudio:
		return LabelDistressKeyword
	case ChannelPose:
		if score == SurrenderScore {
			return LabelSurrender
		}
		return LabelFallDetected
	case ChannelProximity:
		return LabelCrowding
	}
	return ""
}

// NewChannel cria a leitura de um canal com o rótulo derivado da pontuação
func NewChannel(t ChannelType, score int) Channel {
	if score < 0 {
		score = 0
	}
	return Channel{Type: t, Score: score, Label: LabelFor(t, score)}
}

// NewWeaponChannel cria a leitura do canal de armas preservando o objeto
// detectado pelo backend (ex.: "knife"). Com pontuação zero o rótulo volta a "None".
func NewWeaponChannel(score int, label string) Channel {
	ch := NewChannel(ChannelWeapon, score)
	if ch.Score > 0 && label != "" && label != LabelNoWeapon {
		ch.Label = label
	}
	return ch
}

// NewReadingSet monta um ReadingSet a partir das quatro pontuações
func NewReadingSet(weapon, audio, pose, proximity int, ts time.Time) ReadingSet {
	return ReadingSet{
		Weapon:    NewChannel(ChannelWeapon, weapon),
		Audio:     NewChannel(ChannelAudio, audio),
		Pose:      NewChannel(ChannelPose, pose),
		Proximity: NewChannel(ChannelProximity, proximity),
		Timestamp: ts,
	}
}

// BaselineReadingSet retorna o estado zero: todas as pontuações 0 com rótulos neutros
func BaselineReadingSet() ReadingSet {
	return NewReadingSet(0, 0, 0, 0, time.Time{})
}

// Channels retorna os canais na ordem de exibição
func (r ReadingSet) Channels() []Channel {
	return []Channel{r.Weapon, r.Audio, r.Pose, r.Proximity}
}

// Severity é a faixa visual de um canal no painel
type Severity string

const (
	SeverityNominal  Severity = "nominal"
	SeverityElevated Severity = "elevated"
	SeverityHigh     Severity = "high"
)

// SeverityFor classifica a pontuação de um canal: >=40 alta, >=20 elevada
func SeverityFor(score int) Severity {
	switch {
	case score >= 40:
		return SeverityHigh
	case score >= 20:
		return SeverityElevated
	default:
		return SeverityNominal
	}
}
