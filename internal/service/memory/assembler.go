package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/clairebot/internal/config"
	"github.com/sandevgo/clairebot/internal/core"
	"github.com/sandevgo/clairebot/internal/service/entity"
	"github.com/sandevgo/clairebot/internal/service/history"
	"github.com/sandevgo/clairebot/pkg/log"
)

// DateTimeLayout renders the current time into prompt context.
const DateTimeLayout = "Mon 01/02/2006 15:04 -0700"

const defaultUser = "a human"

// TurnContext is the assembled context for one conversation turn. It is an
// explicit value so a stateless server can hand it back to CommitTurn on a
// different instance; the assembler keeps no per-turn state of its own.
type TurnContext struct {
	User     string
	DateTime string
	// History is the serialized recall buffer: the last k exchanges.
	History string
	// Entities is the concatenated fact timelines of the entities the
	// extraction step found, blank-line separated.
	Entities string
	// Memory is the merged semantic recall of past turns, prefixed lines
	// in ascending ledger-id order.
	Memory string
	// EntityCache carries the extracted entity names into CommitTurn.
	EntityCache []string
}

// Assembler orchestrates one conversation turn against the history ledger,
// the entity store and the language model.
type Assembler struct {
	llm      core.LanguageModel
	history  *history.History
	entities *entity.Store
	cfg      *config.MemoryConfig
	now      func() time.Time
}

func NewAssembler(llm core.LanguageModel, hist *history.History, entities *entity.Store, cfg *config.MemoryConfig) *Assembler {
	return &Assembler{
		llm:      llm,
		history:  hist,
		entities: entities,
		cfg:      cfg,
		now:      time.Now,
	}
}

// PrepareTurn builds the prompt context for the user's input. Each recall
// sub-step degrades independently: an upstream failure is logged and its
// section comes back empty rather than aborting the turn.
func (a *Assembler) PrepareTurn(ctx context.Context, user, input string, recent []core.Message) (*TurnContext, error) {
	logger := log.FromCtx(ctx)

	transcript := a.transcript(recent)
	fullTranscript := a.transcript(append(append([]core.Message{}, recent...), core.Message{
		Text:   input,
		IsUser: true,
	}))

	entityNames := a.extractEntities(ctx, transcript, input)
	entitiesContext := a.buildEntitiesContext(ctx, entityNames, fullTranscript)

	memoryContext, err := a.buildMemoryContext(ctx, input, fullTranscript)
	if err != nil {
		logger.Warn().Err(err).Msg("semantic history recall failed, continuing without it")
		memoryContext = ""
	}

	if user == "" {
		user = defaultUser
	}
	return &TurnContext{
		User:        user,
		DateTime:    a.now().Format(DateTimeLayout),
		History:     transcript,
		Entities:    entitiesContext,
		Memory:      memoryContext,
		EntityCache: entityNames,
	}, nil
}

// CommitTurn re-summarizes each entity cached by PrepareTurn and appends the
// completed exchange to the ledger. One entity's failure never blocks the
// others or the append; the UNCHANGED sentinel suppresses no-op rewrites.
func (a *Assembler) CommitTurn(ctx context.Context, tc *TurnContext, input, output string, recent []core.Message) error {
	logger := log.FromCtx(ctx)

	transcript := a.transcript(recent)
	datetime := a.now().Format(DateTimeLayout)

	for _, name := range tc.EntityCache {
		existing, err := a.entities.Get(ctx, name, "No current information known.")
		if err != nil {
			logger.Error().Err(err).Str("entity", name).Msg("failed to load entity summary")
			continue
		}

		updated, err := a.llm.Complete(ctx, buildSummarizationPrompt(existing, name, transcript, datetime, input))
		if err != nil {
			logger.Error().Err(err).Str("entity", name).Msg("entity summarization failed")
			continue
		}

		updated = strings.TrimSpace(updated)
		if updated == SentinelUnchanged {
			continue
		}
		if err := a.entities.Set(ctx, name, updated); err != nil {
			logger.Error().Err(err).Str("entity", name).Msg("failed to store entity summary")
		}
	}

	commitMs := a.now().UnixMilli()
	if _, _, err := a.history.Append(ctx, input, true, commitMs, nil); err != nil {
		return fmt.Errorf("failed to append user message: %w", err)
	}
	if _, _, err := a.history.Append(ctx, output, false, commitMs, nil); err != nil {
		return fmt.Errorf("failed to append assistant message: %w", err)
	}
	return nil
}

// transcript serializes the recall window: the last k*2 messages, trimmed to
// the token budget.
func (a *Assembler) transcript(msgs []core.Message) string {
	window := msgs
	if keep := a.cfg.RecallWindow * 2; keep > 0 && len(window) > keep {
		window = window[len(window)-keep:]
	}
	window = TrimToBudget(window, a.cfg.HumanPrefix, a.cfg.AIPrefix, a.cfg.TranscriptTokenBudget, CountTokens)
	return Serialize(window, a.cfg.HumanPrefix, a.cfg.AIPrefix)
}

func (a *Assembler) extractEntities(ctx context.Context, transcript, input string) []string {
	raw, err := a.llm.Complete(ctx, buildExtractionPrompt(transcript, input))
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("entity extraction failed, continuing without entities")
		return nil
	}
	return parseEntityList(raw)
}

// buildEntitiesContext merges exact-name and similarity facts per entity
// (dedup by document id, oldest first) and renders one timeline per entity.
func (a *Assembler) buildEntitiesContext(ctx context.Context, entityNames []string, fullTranscript string) string {
	if len(entityNames) == 0 {
		return ""
	}
	logger := log.FromCtx(ctx)

	similar, err := a.entities.GetBySimilarity(ctx, fullTranscript, a.cfg.SimilarEntityLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("entity similarity search failed, using exact matches only")
		similar = nil
	}

	sections := make([]string, 0, len(entityNames))
	for _, name := range entityNames {
		exact, err := a.entities.Facts(ctx, name, 0)
		if err != nil {
			logger.Warn().Err(err).Str("entity", name).Msg("failed to load entity facts")
			continue
		}
		merged := entity.MergeFacts(exact, similar[name])
		sections = append(sections, name+":\n"+entity.FormatFacts(merged))
	}
	return strings.Join(sections, "\n\n")
}

// buildMemoryContext merges two semantic searches over the ledger: one for
// the bare input, one for the whole transcript. Duplicate ids are dropped
// and the result is re-sorted by ledger id: recency order, not relevance
// order, is the contract for assembled memory.
func (a *Assembler) buildMemoryContext(ctx context.Context, input, fullTranscript string) (string, error) {
	queryHits, err := a.history.SearchSemantic(ctx, input, a.cfg.SemanticSearchLimit)
	if err != nil {
		return "", err
	}
	transcriptHits, err := a.history.SearchSemantic(ctx, fullTranscript, a.cfg.SemanticSearchLimit)
	if err != nil {
		return "", err
	}

	merged := MergeMessages(queryHits, transcriptHits)
	history.SortByID(merged)

	lines := make([]string, 0, len(merged))
	for _, m := range merged {
		prefix := a.cfg.AIPrefix
		if m.IsUser {
			prefix = a.cfg.HumanPrefix
		}
		lines = append(lines, prefix+": "+m.Text)
	}
	return strings.Join(lines, "\n"), nil
}

// MergeMessages concatenates result sets keeping the first occurrence of
// each message id.
func MergeMessages(sets ...[]core.Message) []core.Message {
	seen := make(map[string]struct{})
	var merged []core.Message
	for _, set := range sets {
		for _, m := range set {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			merged = append(merged, m)
		}
	}
	return merged
}
