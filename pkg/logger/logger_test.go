package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tt := []struct {
		name     string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{" warn ", WarnLevel},
		{"error", ErrorLevel},
		{"disabled", Disabled},
	}

	for _, tc := range tt {
		level, err := ParseLevel(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.expected, level, tc.name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.WithField("pair", "AAAUSDT").WithError(nil).Info("dropped")
	log.SetLevel(DebugLevel)
	assert.Equal(t, Disabled, log.GetLevel())
}
