package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/clairebot/internal/config"
	"github.com/sandevgo/clairebot/internal/core"
	"github.com/sandevgo/clairebot/internal/providers/llm"
	"github.com/sandevgo/clairebot/internal/providers/profile"
	"github.com/sandevgo/clairebot/internal/service/entity"
	"github.com/sandevgo/clairebot/internal/service/history"
	"github.com/sandevgo/clairebot/internal/service/memory"
	"github.com/sandevgo/clairebot/internal/service/scheduler"
	"github.com/sandevgo/clairebot/internal/storage/sqlite"
)

// runtime holds process-wide collaborators shared by every profile.
type runtime struct {
	app      *config.AppConfig
	memCfg   *config.MemoryConfig
	schedCfg *config.SchedulerConfig
	db       *sql.DB
	llm      core.LanguageModel
	embedder core.Embedder
	profiles *profile.Directory
}

func newRuntime(ctx context.Context) (*runtime, error) {
	app := config.NewAppConfig(ctx)
	openAI := config.NewOpenAIConfig(ctx)

	db, err := sqlite.NewDB(ctx, app.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &runtime{
		app:      app,
		memCfg:   config.NewMemoryConfig(ctx),
		schedCfg: config.NewSchedulerConfig(ctx),
		db:       db,
		llm: llm.NewClient(llm.Config{
			BaseURL: openAI.BaseURL,
			APIKey:  openAI.APIKey,
			Model:   openAI.Model,
		}),
		embedder: llm.NewEmbeddingClient(llm.Config{
			BaseURL: openAI.BaseURL,
			APIKey:  openAI.APIKey,
			Model:   openAI.EmbeddingModel,
		}),
		profiles: profile.NewDirectory(app.GetProfilesPath()),
	}, nil
}

// profileServices are the per-profile stores and orchestrators. Each profile
// owns isolated index namespaces and its own queue file.
type profileServices struct {
	history   *history.History
	entities  *entity.Store
	queue     *scheduler.Queue
	assembler *memory.Assembler
}

func (r *runtime) openProfile(ctx context.Context, p core.Profile) (*profileServices, error) {
	hist, err := history.Open(ctx, sqlite.NewIndex(r.db, p.HistoryNamespace(), r.embedder))
	if err != nil {
		return nil, fmt.Errorf("failed to open history for %s: %w", p.UUID, err)
	}

	entities := entity.NewStore(sqlite.NewIndex(r.db, p.EntityNamespace(), r.embedder), 0)
	queue := scheduler.NewQueue(r.app.GetQueueDir(), p.UUID)

	return &profileServices{
		history:   hist,
		entities:  entities,
		queue:     queue,
		assembler: memory.NewAssembler(r.llm, hist, entities, r.memCfg),
	}, nil
}
