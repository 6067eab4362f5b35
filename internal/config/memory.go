package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/clairebot/pkg/log"
)

type MemoryConfig struct {
	// RecallWindow is k: the last k exchanges (k*2 messages) are serialized
	// into the transcript fed to extraction and summarization.
	RecallWindow int `env:"CLAIRE_RECALL_WINDOW" envDefault:"3"`

	SimilarEntityLimit  int `env:"CLAIRE_SIMILAR_ENTITY_LIMIT" envDefault:"3"`
	SemanticSearchLimit int `env:"CLAIRE_SEMANTIC_SEARCH_LIMIT" envDefault:"10"`

	HumanPrefix string `env:"CLAIRE_HUMAN_PREFIX" envDefault:"Human"`
	AIPrefix    string `env:"CLAIRE_AI_PREFIX" envDefault:"AI"`

	// TranscriptTokenBudget caps the serialized recall buffer. 0 disables
	// trimming.
	TranscriptTokenBudget int `env:"CLAIRE_TRANSCRIPT_TOKEN_BUDGET" envDefault:"1024"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	return c
}
