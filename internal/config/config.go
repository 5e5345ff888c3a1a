// Package config provides gateway configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds mcp-gateway configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"mcp-gateway"`

	// Retrieval backend subjects and request bound.
	RetrievalPrefix  string        `envconfig:"RETRIEVAL_SUBJECT_PREFIX" default:"retrieval"`
	RetrievalTimeout time.Duration `envconfig:"RETRIEVAL_REQUEST_TIMEOUT" default:"30s"`

	// Telemetry subject (empty = telemetry disabled).
	TelemetrySubject string `envconfig:"TELEMETRY_SUBJECT"`

	// Prompt store: YAML file by default, Postgres when DATABASE_URL is set.
	PromptsFile   string `envconfig:"PROMPTS_FILE" default:"prompts.yaml"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"migrations"`

	// Advertised Schema.org types (comma separated).
	SchemaTypes []string `envconfig:"SCHEMA_TYPES"`

	// HTTP endpoint.
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the gateway.
func (c *Config) ValidateForServe() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.RetrievalTimeout <= 0 {
		return fmt.Errorf("%s - RETRIEVAL_REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.DatabaseURL == "" && c.PromptsFile == "" {
		return fmt.Errorf("%s - PROMPTS_FILE or DATABASE_URL is required", logPrefix)
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands
// (migrate, seed-prompts).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
