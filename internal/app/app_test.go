package app

import (
	"context"
	"errors"
	"os"
	"testing"

	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func TestShutdownTracerFlushesOnExit(t *testing.T) {
	called := false
	a := &App{tracerShutdown: func(ctx context.Context) error {
		called = true
		return nil
	}}

	a.shutdownTracer(context.Background())
	assert.True(t, called)
}

func TestShutdownTracerNoopWhenTracingDisabled(t *testing.T) {
	a := &App{}
	a.shutdownTracer(context.Background())
}

func TestShutdownTracerSwallowsExportError(t *testing.T) {
	a := &App{tracerShutdown: func(ctx context.Context) error {
		return errors.New("collector gone")
	}}
	a.shutdownTracer(context.Background())
}

func TestReloadConfigUpdatesSharedPointer(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	a := &App{Config: cfg}

	var seen string
	a.RegisterConfigCallback(func(c *config.Config) {
		seen = c.Server.Port
	})

	newCfg := &config.Config{}
	newCfg.Server.Port = "9090"
	a.ReloadConfig(newCfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "9090", seen)
}
