package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/clairebot/internal/core"
)

func TestQueue_DueFiltering(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(t.TempDir(), "profile-1")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := core.Message{
		ID:        "sched-1",
		Text:      "how did the interview go?",
		Timestamp: now.Add(time.Hour).UnixMilli(),
	}
	require.NoError(t, q.Enqueue(ctx, msg))

	due, err := q.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due, "not due yet")

	due, err = q.Due(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "sched-1", due[0].ID)

	require.NoError(t, q.RemoveByIDs(ctx, []string{"sched-1"}))
	due, err = q.Due(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestQueue_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	q := NewQueue(dir, "profile-1")
	require.NoError(t, q.Enqueue(ctx, core.Message{ID: "a", Text: "first", Timestamp: 1000}))
	require.NoError(t, q.Enqueue(ctx, core.Message{ID: "b", Text: "second", Timestamp: 2000}))

	reopened := NewQueue(dir, "profile-1")
	due, err := reopened.Due(ctx, time.UnixMilli(5000))
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "a", due[0].ID)
	assert.Equal(t, "b", due[1].ID)

	other := NewQueue(dir, "profile-2")
	due, err = other.Due(ctx, time.UnixMilli(5000))
	require.NoError(t, err)
	assert.Empty(t, due, "queues are per profile")
}

func TestQueue_RemoveUnknownIDs(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(t.TempDir(), "profile-1")

	require.NoError(t, q.Enqueue(ctx, core.Message{ID: "a", Text: "keep me", Timestamp: 1000}))
	require.NoError(t, q.RemoveByIDs(ctx, []string{"nope"}))

	due, err := q.Due(ctx, time.UnixMilli(5000))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestQueue_MissingFileIsEmpty(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(t.TempDir(), "never-written")

	due, err := q.Due(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	require.NoError(t, q.RemoveByIDs(ctx, nil))
}
