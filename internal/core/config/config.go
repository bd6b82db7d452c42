package config

import (
	"time"

	redisclient "github.com/vietddude/markerbridge/internal/infra/redis"
	"github.com/vietddude/markerbridge/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Host     HostConfig         `yaml:"host"`
	Import   ImportConfig       `yaml:"import"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// HostConfig holds settings for the audio host connection.
type HostConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	Transport       string        `yaml:"transport"` // grpc, http
	CompanyName     string        `yaml:"company_name"`
	ApplicationName string        `yaml:"application_name"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	Heartbeat       struct {
		Interval  time.Duration `yaml:"interval"`
		MaxMisses int           `yaml:"max_misses"`
	} `yaml:"heartbeat"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig holds reconnect backoff settings.
type ReconnectConfig struct {
	Base        time.Duration `yaml:"base"`
	Cap         time.Duration `yaml:"cap"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// ImportConfig holds settings for marker import runs.
type ImportConfig struct {
	BatchSize         int           `yaml:"batch_size"`
	BatchDelay        time.Duration `yaml:"batch_delay"`
	CreateRetries     int           `yaml:"create_retries"`
	ConflictStrategy  string        `yaml:"conflict_strategy"` // ask_each, skip_conflicting, auto_offset, ask_once
	ExpectedFrameRate float64       `yaml:"expected_frame_rate"`
	StartOffset       string        `yaml:"start_offset"`
}
