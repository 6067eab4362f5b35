package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/clairebot/pkg/log"
)

type SchedulerConfig struct {
	PollInterval time.Duration `env:"CLAIRE_SCHEDULER_POLL" envDefault:"1m"`
}

func NewSchedulerConfig(ctx context.Context) *SchedulerConfig {
	c := &SchedulerConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Scheduler config")
	}
	return c
}
