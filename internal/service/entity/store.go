package entity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/clairebot/internal/core"
)

// FactDateLayout renders the creation time of a fact when the fact set is
// flattened into a summary string.
const FactDateLayout = "Mon 01/02/2006 15:04 -0700"

const defaultSimilarityK = 3

// Store accumulates timestamped facts about named entities in a
// vector-searchable index namespace. Facts are append-only; updating an
// entity means adding a new fact document.
type Store struct {
	index core.EmbeddingIndex
	limit int
	now   func() time.Time
}

// NewStore wraps the given namespace. limit caps how many most-recent facts
// Get renders per entity; 0 means all.
func NewStore(index core.EmbeddingIndex, limit int) *Store {
	return &Store{index: index, limit: limit, now: time.Now}
}

// Facts returns the facts stored for an exact entity name, oldest first.
// A positive limit keeps only the most recent ones.
func (s *Store) Facts(ctx context.Context, name string, limit int) ([]core.EntityFact, error) {
	docs, err := s.index.GetByFilter(ctx, func(d core.Document) bool {
		return core.MetaString(d.Metadata, core.MetaEntityName) == name
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load facts for %q: %w", name, err)
	}

	facts := factsFromDocs(docs)
	SortByCreatedAt(facts)
	if limit > 0 && len(facts) > limit {
		facts = facts[len(facts)-limit:]
	}
	return facts, nil
}

// Get renders the entity's fact timeline as "<date>: <fact>" lines, oldest
// first, or returns defaultValue when nothing is known.
func (s *Store) Get(ctx context.Context, name, defaultValue string) (string, error) {
	facts, err := s.Facts(ctx, name, s.limit)
	if err != nil {
		return "", err
	}
	if len(facts) == 0 {
		return defaultValue, nil
	}
	return FormatFacts(facts), nil
}

// GetBySimilarity finds the facts nearest to the query across all entities
// and groups them by entity name. This surfaces entities relevant to a
// conversation even when they were not named in the last turn.
func (s *Store) GetBySimilarity(ctx context.Context, query string, limit int) (map[string][]core.EntityFact, error) {
	if limit <= 0 {
		limit = s.limit
	}
	if limit <= 0 {
		limit = defaultSimilarityK
	}
	docs, err := s.index.QueryNearest(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	grouped := make(map[string][]core.EntityFact)
	for _, f := range factsFromDocs(docs) {
		if f.EntityName == "" {
			continue
		}
		grouped[f.EntityName] = append(grouped[f.EntityName], f)
	}
	return grouped, nil
}

// Set appends a new fact document for the entity. Empty fact text is a
// no-op.
func (s *Store) Set(ctx context.Context, name, factText string) error {
	if factText == "" {
		return nil
	}
	meta := map[string]any{
		core.MetaEntityName: name,
		core.MetaCreated:    s.now().Unix(),
	}
	if err := s.index.Insert(ctx, uuid.NewString(), factText, meta); err != nil {
		return fmt.Errorf("failed to store fact for %q: %w", name, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	facts, err := s.Facts(ctx, name, 1)
	if err != nil {
		return false, err
	}
	return len(facts) > 0, nil
}

// Delete removes every fact stored for the entity.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.index.DeleteByFilter(ctx, func(d core.Document) bool {
		return core.MetaString(d.Metadata, core.MetaEntityName) == name
	})
	if err != nil {
		return fmt.Errorf("failed to delete entity %q: %w", name, err)
	}
	return nil
}

// Clear deletes and recreates the namespace.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset entity namespace: %w", err)
	}
	return nil
}

// MergeFacts combines exact-name and similarity hits for one entity,
// dropping duplicate document ids and ordering by creation time so the model
// sees one coherent timeline.
func MergeFacts(exact, similar []core.EntityFact) []core.EntityFact {
	seen := make(map[string]struct{}, len(exact)+len(similar))
	merged := make([]core.EntityFact, 0, len(exact)+len(similar))
	for _, f := range append(append([]core.EntityFact{}, exact...), similar...) {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
	}
	SortByCreatedAt(merged)
	return merged
}

// FormatFacts renders facts as newline-joined "<date>: <fact>" lines.
func FormatFacts(facts []core.EntityFact) string {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		created := "(unknown date)"
		if f.CreatedAt > 0 {
			created = time.Unix(f.CreatedAt, 0).Format(FactDateLayout)
		}
		lines = append(lines, created+": "+f.Text)
	}
	return strings.Join(lines, "\n")
}

// SortByCreatedAt orders facts oldest first. The sort is stable so facts
// created in the same second keep their storage order.
func SortByCreatedAt(facts []core.EntityFact) {
	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].CreatedAt < facts[j].CreatedAt
	})
}

func factsFromDocs(docs []core.Document) []core.EntityFact {
	facts := make([]core.EntityFact, 0, len(docs))
	for _, d := range docs {
		facts = append(facts, core.EntityFact{
			ID:         d.ID,
			EntityName: core.MetaString(d.Metadata, core.MetaEntityName),
			Text:       d.Text,
			CreatedAt:  core.MetaInt64(d.Metadata, core.MetaCreated),
		})
	}
	return facts
}
