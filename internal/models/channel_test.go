package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelFor_PoseTieBreak(t *testing.T) {
	assert.Equal(t, LabelPoseNormal, LabelFor(ChannelPose, 0))
	assert.Equal(t, LabelSurrender, LabelFor(ChannelPose, 30))
	assert.Equal(t, LabelFallDetected, LabelFor(ChannelPose, 20))
	assert.Equal(t, LabelFallDetected, LabelFor(ChannelPose, 29))
	assert.Equal(t, LabelFallDetected, LabelFor(ChannelPose, 31))
	assert.Equal(t, LabelFallDetected, LabelFor(ChannelPose, 1))
}

func TestLabelFor_NeutralIffZero(t *testing.T) {
	for _, ct := range ChannelTypes {
		assert.Equal(t, NeutralLabel(ct), LabelFor(ct, 0), "canal %s", ct)
		assert.NotEqual(t, NeutralLabel(ct), LabelFor(ct, MaxScore(ct)), "canal %s", ct)
	}

	assert.Equal(t, LabelWeaponDetected, LabelFor(ChannelWeapon, 45))
	assert.Equal(t, LabelDistressKeyword, LabelFor(ChannelAudio, 35))
	assert.Equal(t, LabelCrowding, LabelFor(ChannelProximity, 15))
}

func TestNewChannel_ClampsNegative(t *testing.T) {
	ch := NewChannel(ChannelAudio, -5)
	assert.Equal(t, 0, ch.Score)
	assert.Equal(t, LabelListening, ch.Label)
}

func TestNewWeaponChannel(t *testing.T) {
	assert.Equal(t, "knife", NewWeaponChannel(45, "knife").Label)
	assert.Equal(t, LabelWeaponDetected, NewWeaponChannel(45, "").Label)
	assert.Equal(t, LabelWeaponDetected, NewWeaponChannel(45, LabelNoWeapon).Label)
	assert.Equal(t, LabelNoWeapon, NewWeaponChannel(0, "knife").Label)
}

func TestBaselineReadingSet(t *testing.T) {
	rs := BaselineReadingSet()
	for _, ch := range rs.Channels() {
		assert.Equal(t, 0, ch.Score)
		assert.Equal(t, NeutralLabel(ch.Type), ch.Label)
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityNominal, SeverityFor(0))
	assert.Equal(t, SeverityNominal, SeverityFor(15))
	assert.Equal(t, SeverityElevated, SeverityFor(20))
	assert.Equal(t, SeverityElevated, SeverityFor(35))
	assert.Equal(t, SeverityHigh, SeverityFor(45))
}

func TestParseStatusAndMode(t *testing.T) {
	s, err := ParseStatus("danger")
	assert.NoError(t, err)
	assert.Equal(t, StatusDanger, s)

	_, err = ParseStatus("BOOM")
	assert.Error(t, err)

	m, err := ParseMode("LIVE_BACKEND")
	assert.NoError(t, err)
	assert.Equal(t, ModeLiveBackend, m)

	m, err = ParseMode("simulation")
	assert.NoError(t, err)
	assert.Equal(t, ModeSimulation, m)

	_, err = ParseMode("replay")
	assert.Error(t, err)
}
