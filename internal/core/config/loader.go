package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Host.Endpoint == "" {
		cfg.Host.Endpoint = "localhost:31416"
	}
	if cfg.Host.Transport == "" {
		cfg.Host.Transport = "grpc"
	}
	if cfg.Host.CompanyName == "" {
		cfg.Host.CompanyName = "markerbridge"
	}
	if cfg.Host.ApplicationName == "" {
		cfg.Host.ApplicationName = "markerbridge"
	}
	if cfg.Host.RequestTimeout == 0 {
		cfg.Host.RequestTimeout = 10 * time.Second
	}
	if cfg.Host.Heartbeat.Interval == 0 {
		cfg.Host.Heartbeat.Interval = 30 * time.Second
	}
	if cfg.Host.Heartbeat.MaxMisses == 0 {
		cfg.Host.Heartbeat.MaxMisses = 3
	}
	if cfg.Host.Reconnect.Base == 0 {
		cfg.Host.Reconnect.Base = 2 * time.Second
	}
	if cfg.Host.Reconnect.Cap == 0 {
		cfg.Host.Reconnect.Cap = 60 * time.Second
	}
	if cfg.Host.Reconnect.MaxAttempts == 0 {
		cfg.Host.Reconnect.MaxAttempts = 5
	}

	if cfg.Import.BatchSize == 0 {
		cfg.Import.BatchSize = 10
	}
	if cfg.Import.BatchDelay == 0 {
		cfg.Import.BatchDelay = 500 * time.Millisecond
	}
	if cfg.Import.CreateRetries == 0 {
		cfg.Import.CreateRetries = 3
	}
	if cfg.Import.ConflictStrategy == "" {
		cfg.Import.ConflictStrategy = "skip_conflicting"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}
