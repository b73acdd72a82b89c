package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	BaseURL string

	Simulate  bool
	SimScript string

	WhiteEngineID string
	BlackEngineID string
	InitialMs     int64

	ReconnectDelayMs int64
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		InitialMs:        300000,
		ReconnectDelayMs: 1500,
	}

	cfg.BaseURL = strings.TrimSpace(os.Getenv("BENCH_BASE_URL"))

	if v := strings.TrimSpace(os.Getenv("BENCH_SIMULATE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.Simulate = b
		}
	}
	cfg.SimScript = strings.TrimSpace(os.Getenv("BENCH_SIM_SCRIPT"))

	cfg.WhiteEngineID = strings.TrimSpace(os.Getenv("BENCH_WHITE_ENGINE"))
	cfg.BlackEngineID = strings.TrimSpace(os.Getenv("BENCH_BLACK_ENGINE"))

	if v := strings.TrimSpace(os.Getenv("BENCH_INITIAL_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.InitialMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BENCH_RECONNECT_DELAY_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.ReconnectDelayMs = n
		}
	}

	if !cfg.Simulate && cfg.BaseURL == "" {
		return nil, errors.New("BENCH_BASE_URL is required unless BENCH_SIMULATE=true")
	}

	return cfg, nil
}
