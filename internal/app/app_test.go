package app

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aidar/teamflow/internal/config"
)

func TestNewCreatesMetricsWhenEnabled(t *testing.T) {
	a, err := New(&config.Config{Metrics: config.MetricsConfig{Enabled: true}})
	assert.NoError(t, err)
	assert.NotNil(t, a.metrics)

	a, err = New(&config.Config{})
	assert.NoError(t, err)
	assert.Nil(t, a.metrics)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
