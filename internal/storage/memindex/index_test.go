package memindex

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/clairebot/internal/core"
)

// hashEmbedder is a deterministic bag-of-words embedding: identical text
// maps to identical vectors, shared words to similar ones.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%64]++
	}
	return vec, nil
}

func seedIndex(t *testing.T) *Index {
	t.Helper()
	ctx := context.Background()
	x := New(hashEmbedder{})
	docs := []struct {
		id   string
		text string
	}{
		{"0", "the weather is sunny today"},
		{"1", "jacob likes hiking in the mountains"},
		{"2", "dinner plans for friday night"},
	}
	for _, d := range docs {
		require.NoError(t, x.Insert(ctx, d.id, d.text, map[string]any{"n": d.id}))
	}
	return x
}

func TestIndex_CountAndGetByID(t *testing.T) {
	ctx := context.Background()
	x := seedIndex(t)

	count, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	docs, err := x.GetByID(ctx, []string{"2", "0", "missing"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// storage order, not request order
	assert.Equal(t, "0", docs[0].ID)
	assert.Equal(t, "2", docs[1].ID)
}

func TestIndex_GetByFilter(t *testing.T) {
	ctx := context.Background()
	x := seedIndex(t)

	docs, err := x.GetByFilter(ctx, func(d core.Document) bool {
		return strings.Contains(d.Text, "hiking")
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ID)
}

func TestIndex_QueryNearest(t *testing.T) {
	ctx := context.Background()
	x := seedIndex(t)

	docs, err := x.QueryNearest(ctx, "jacob likes hiking in the mountains", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", docs[0].ID, "identical text should rank first")

	none, err := x.QueryNearest(ctx, "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIndex_DeleteByFilterAndReset(t *testing.T) {
	ctx := context.Background()
	x := seedIndex(t)

	err := x.DeleteByFilter(ctx, func(d core.Document) bool {
		return d.ID == "1"
	})
	require.NoError(t, err)

	count, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, x.Reset(ctx))
	count, err = x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}), "length mismatch")
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}), "zero vector")
}
