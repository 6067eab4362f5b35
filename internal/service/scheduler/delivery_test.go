package scheduler

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/clairebot/internal/core"
	"github.com/sandevgo/clairebot/internal/service/history"
	"github.com/sandevgo/clairebot/internal/storage/memindex"
)

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

func newTestDelivery(t *testing.T) (*Delivery, *Queue, *history.History) {
	t.Helper()
	q := NewQueue(t.TempDir(), "profile-1")
	hist, err := history.Open(context.Background(), memindex.New(hashEmbedder{}))
	require.NoError(t, err)
	return NewDelivery(q, hist), q, hist
}

func TestDeliverDue(t *testing.T) {
	ctx := context.Background()
	d, q, hist := newTestDelivery(t)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	require.NoError(t, q.Enqueue(ctx, core.Message{
		ID: "past", Text: "checking in!", Timestamp: now.Add(-time.Hour).UnixMilli(),
	}))
	require.NoError(t, q.Enqueue(ctx, core.Message{
		ID: "future", Text: "not yet", Timestamp: now.Add(time.Hour).UnixMilli(),
	}))

	require.NoError(t, d.deliverDue(ctx))

	msgs, err := hist.Window(ctx, history.Latest(), 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "checking in!", msgs[0].Text)
	assert.False(t, msgs[0].IsUser)

	// the delivered entry is gone, the future one still queued
	remaining, err := q.Due(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "future", remaining[0].ID)
}

func TestDeliverDue_Redelivery(t *testing.T) {
	ctx := context.Background()
	d, q, hist := newTestDelivery(t)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	msg := core.Message{ID: "past", Text: "checking in!", Timestamp: now.Add(-time.Hour).UnixMilli()}
	require.NoError(t, q.Enqueue(ctx, msg))
	require.NoError(t, d.deliverDue(ctx))

	// a crash between append and removal leaves the entry queued; the next
	// tick re-appends and the ledger's content dedup absorbs it
	require.NoError(t, q.Enqueue(ctx, msg))
	require.NoError(t, d.deliverDue(ctx))

	msgs, err := hist.Window(ctx, history.Latest(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "redelivery must not duplicate the ledger entry")

	remaining, err := q.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeliverDue_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	d, _, _ := newTestDelivery(t)
	require.NoError(t, d.deliverDue(ctx))
}
