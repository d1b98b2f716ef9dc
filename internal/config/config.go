// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

// Config is the full process configuration. Everything comes from the
// environment; there is no config file and no global state.
type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"urn:ietf:wg:oauth:2.0:oob"`

	QueraBaseURL string `env:"QUERA_BASE_URL" envDefault:"https://quera.org"`

	SyncInterval     time.Duration `env:"SYNC_INTERVAL" envDefault:"3h"`
	SyncInitialDelay time.Duration `env:"SYNC_INITIAL_DELAY" envDefault:"10s"`
	RemoteTimeout    time.Duration `env:"REMOTE_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
