package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/clairebot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"CLAIRE_RUNTIME_PATH" envDefault:".claire"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "claire.db")
}

func (c AppConfig) GetProfilesPath() string {
	return filepath.Join(c.RuntimePath, "profiles.json")
}

// GetQueueDir is the directory holding per-profile scheduled message files.
func (c AppConfig) GetQueueDir() string {
	return c.RuntimePath
}
