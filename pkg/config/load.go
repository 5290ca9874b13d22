package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads dotenvPath if present (development convenience only, never
// required in production) and then populates App from the environment
// under the "GAMEWALLET" prefix.
func Load(dotenvPath string) (*App, error) {
	if dotenvPath != "" {
		_ = godotenv.Load(dotenvPath) //nolint:errcheck
	}

	var cfg App
	if err := envconfig.Process("gamewallet", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load application configuration: %w", err)
	}
	return &cfg, nil
}
