package logger

import (
	"testing"

	"pracas_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestApplyConfigFollowsServerMode(t *testing.T) {
	ApplyConfig(&config.Config{Server: config.ServerConfig{Mode: "debug"}})
	assert.Equal(t, zap.DebugLevel, Level())

	ApplyConfig(&config.Config{Server: config.ServerConfig{Mode: "release"}})
	assert.Equal(t, zap.InfoLevel, Level())
}
