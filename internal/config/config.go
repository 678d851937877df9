// Package config reads the application configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvPrefix = "MQTTC_"

type Config struct {
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	JSONLogs         bool          `env:"JSON_LOGS" envDefault:"false"`
	ConnectTimeout   time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"5s"`
	KeepAlive        time.Duration `env:"KEEP_ALIVE" envDefault:"60s"`
	AutoReconnect    bool          `env:"AUTO_RECONNECT" envDefault:"false"`

	// Automation runs local commands (including shutdown) on matching payloads
	AutomationEnabled bool `env:"AUTOMATION_ENABLED" envDefault:"false"`

	MetricsAddr     string `env:"METRICS_ADDR"`
	MessageLogLimit int    `env:"MESSAGE_LOG_LIMIT" envDefault:"1000"`
	EventBufferSize int    `env:"EVENT_BUFFER" envDefault:"256"`
}

// Load reads the given .env files (missing files are ignored) and then parses
// the MQTTC_ prefixed environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return Parse()
}

// Parse reads only the process environment
func Parse() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: EnvPrefix})
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got %s", c.OperationTimeout)
	}
	if c.MessageLogLimit <= 0 {
		return fmt.Errorf("message log limit must be positive, got %d", c.MessageLogLimit)
	}
	if c.EventBufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got %d", c.EventBufferSize)
	}
	return nil
}
