package history

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/clairebot/internal/core"
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

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(context.Background(), memindex.New(hashEmbedder{}))
	require.NoError(t, err)
	return h
}

// seedLedger appends n messages "message <i>" alternating user/assistant,
// with timestamps 1000, 2000, ...
func seedLedger(t *testing.T, h *History, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		msg, added, err := h.Append(ctx, fmt.Sprintf("message %d", i), i%2 == 0, int64((i+1)*1000), nil)
		require.NoError(t, err)
		require.True(t, added)
		require.Equal(t, fmt.Sprintf("%d", i), msg.ID)
	}
}

func TestAppend_SequentialIDs(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)
	seedLedger(t, h, 5)

	require.NoError(t, h.Clear(ctx))

	msg, added, err := h.Append(ctx, "fresh start", true, 9000, nil)
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, "0", msg.ID, "counter must reset after clear")
}

func TestAppend_Dedup(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)

	_, added, err := h.Append(ctx, "hello there", true, 1234, nil)
	require.NoError(t, err)
	require.True(t, added)

	_, added, err = h.Append(ctx, "hello there", true, 1234, nil)
	require.NoError(t, err)
	assert.False(t, added, "identical (text, timestamp, isUser) must be dropped")

	// same text, different flag is a different message
	_, added, err = h.Append(ctx, "hello there", false, 1234, nil)
	require.NoError(t, err)
	assert.True(t, added)

	msgs, err := h.SearchExact(ctx, "hello there", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestAppend_SeedsCounterFromIndex(t *testing.T) {
	ctx := context.Background()
	idx := memindex.New(hashEmbedder{})
	h, err := Open(ctx, idx)
	require.NoError(t, err)
	seedLedger(t, h, 3)

	// reopening the same namespace continues the sequence
	reopened, err := Open(ctx, idx)
	require.NoError(t, err)
	msg, added, err := reopened.Append(ctx, "next", true, 99000, nil)
	require.NoError(t, err)
	require.True(t, added)
	assert.Equal(t, "3", msg.ID)
}

func TestWindow(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)
	seedLedger(t, h, 10)

	tests := []struct {
		name    string
		anchor  Anchor
		before  int
		after   int
		wantIDs []string
	}{
		{"centered", ByID("5"), 2, 2, []string{"3", "4", "5", "6", "7"}},
		{"clamped at zero", ByID("1"), 3, 0, []string{"0", "1"}},
		{"latest anchor", Latest(), 4, 0, []string{"5", "6", "7", "8", "9"}},
		{"overshoot after", ByID("9"), 0, 5, []string{"9"}},
		{"unparsable id", ByID("not-a-number"), 2, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := h.Window(ctx, tt.anchor, tt.before, tt.after)
			require.NoError(t, err)
			ids := make([]string, 0, len(msgs))
			for _, m := range msgs {
				ids = append(ids, m.ID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestWindow_EmptyLedgerLatest(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)

	msgs, err := h.Window(ctx, Latest(), 4, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestWindow_ByContent(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)
	seedLedger(t, h, 10)

	anchor := core.Message{Text: "message 5", IsUser: false, Timestamp: 6000}
	msgs, err := h.Window(ctx, ByContent(anchor), 1, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "5", msgs[1].ID)
}

func TestWindow_ByContentNoMatch(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)
	seedLedger(t, h, 10)

	tests := []struct {
		name   string
		anchor core.Message
	}{
		{"text mismatch", core.Message{Text: "never said this", IsUser: false, Timestamp: 6000}},
		{"timestamp mismatch", core.Message{Text: "message 5", IsUser: false, Timestamp: 7777}},
		{"isUser mismatch", core.Message{Text: "message 5", IsUser: true, Timestamp: 6000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := h.Window(ctx, ByContent(tt.anchor), 2, 2)
			require.NoError(t, err)
			assert.Empty(t, msgs, "no fallback to most recent on a failed content match")
		})
	}
}

func TestWindow_ByContentTieBreak(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)

	// two messages share the timestamp; only the exact text match may win
	_, _, err := h.Append(ctx, "echo", true, 5000, nil)
	require.NoError(t, err)
	_, _, err = h.Append(ctx, "different", true, 5000, nil)
	require.NoError(t, err)

	msgs, err := h.Window(ctx, ByContent(core.Message{Text: "echo", IsUser: true, Timestamp: 5000}), 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "0", msgs[0].ID)
}

func TestSearchExact(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)

	_, _, err := h.Append(ctx, "hello world", true, 1000, nil)
	require.NoError(t, err)
	_, _, err = h.Append(ctx, "say hello to jacob", false, 2000, nil)
	require.NoError(t, err)
	_, _, err = h.Append(ctx, "Hello uppercase", true, 3000, nil)
	require.NoError(t, err)

	msgs, err := h.SearchExact(ctx, "hello", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2, "substring match is case-sensitive")
	assert.Equal(t, "hello world", msgs[0].Text)
	assert.Equal(t, "say hello to jacob", msgs[1].Text)

	limited, err := h.SearchExact(ctx, "hello", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSearchSemantic(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory(t)
	seedLedger(t, h, 4)

	msgs, err := h.SearchSemantic(ctx, "message 2", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "message 2", msgs[0].Text, "index similarity order is preserved")
}
