package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "3m 5s", FormatDuration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h 0m 1s", FormatDuration(2*time.Hour+time.Second))
	assert.Equal(t, "1s", FormatDuration(1400*time.Millisecond))
}

func TestInt16Bytes(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x50}, Int16ToBytes(80))
	assert.Equal(t, int16(-2), BytesToInt16(Int16ToBytes(-2)))
}

func TestClampInt16(t *testing.T) {
	assert.Equal(t, int16(125), ClampInt16(125))
	assert.Equal(t, int16(32767), ClampInt16(100000))
	assert.Equal(t, int16(-32768), ClampInt16(-100000))
}

func TestFormatDateTimeMs(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6e6, time.UTC)
	assert.Equal(t, "2026-01-02 03:04:05.006", FormatDateTimeMs(ts))
}
