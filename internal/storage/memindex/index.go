package memindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sandevgo/clairebot/internal/core"
)

type entry struct {
	doc core.Document
	vec []float32
}

// Index is an in-memory EmbeddingIndex: documents in insertion order,
// nearest-neighbor queries by cosine similarity. One Index is one namespace.
type Index struct {
	embedder core.Embedder
	mu       sync.RWMutex
	entries  []entry
}

func New(embedder core.Embedder) *Index {
	return &Index{embedder: embedder}
}

func (x *Index) Insert(ctx context.Context, id, text string, metadata map[string]any) error {
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	meta := make(map[string]any, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = append(x.entries, entry{
		doc: core.Document{ID: id, Text: text, Metadata: meta},
		vec: vec,
	})
	return nil
}

func (x *Index) GetByID(ctx context.Context, ids []string) ([]core.Document, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	var docs []core.Document
	for _, e := range x.entries {
		if _, ok := want[e.doc.ID]; ok {
			docs = append(docs, e.doc)
		}
	}
	return docs, nil
}

func (x *Index) GetByFilter(ctx context.Context, filter core.DocumentFilter) ([]core.Document, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	var docs []core.Document
	for _, e := range x.entries {
		if filter(e.doc) {
			docs = append(docs, e.doc)
		}
	}
	return docs, nil
}

func (x *Index) QueryNearest(ctx context.Context, query string, k int) ([]core.Document, error) {
	if k <= 0 {
		return nil, nil
	}
	qvec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		doc core.Document
		sim float64
	}
	ranked := make([]scored, 0, len(x.entries))
	for _, e := range x.entries {
		ranked = append(ranked, scored{doc: e.doc, sim: Cosine(qvec, e.vec)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	docs := make([]core.Document, 0, k)
	for _, r := range ranked[:k] {
		docs = append(docs, r.doc)
	}
	return docs, nil
}

func (x *Index) DeleteByFilter(ctx context.Context, filter core.DocumentFilter) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	remaining := x.entries[:0]
	for _, e := range x.entries {
		if !filter(e.doc) {
			remaining = append(remaining, e)
		}
	}
	x.entries = remaining
	return nil
}

func (x *Index) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

func (x *Index) Reset(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = nil
	return nil
}

// Cosine is the cosine similarity of two vectors; 0 when either is zero or
// the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
