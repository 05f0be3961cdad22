package cli

import (
	"log/slog"
	"testing"

	"ajo/internal/config"
	"ajo/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentWorker)
	if logger.Component() != log.ComponentWorker {
		t.Errorf("component = %q", logger.Component())
	}
	if !logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("EXPORT_BACKEND", "memory")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("port = %q", cfg.Port)
	}
}
