package history

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sandevgo/clairebot/internal/core"
	"github.com/sandevgo/clairebot/pkg/log"
)

// History is the append-only, vector-searchable message ledger of one
// profile. Ids are decimal strings counting up from 0; the counter is seeded
// from the index document count at open and owned by this instance. Opening
// two instances against the same namespace concurrently is a known race: ids
// would collide. Serialize opens per namespace.
type History struct {
	index  core.EmbeddingIndex
	nextID int64
}

func Open(ctx context.Context, index core.EmbeddingIndex) (*History, error) {
	count, err := index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to seed id counter: %w", err)
	}
	return &History{index: index, nextID: int64(count)}, nil
}

// Append stores one message under the next ledger id. A message identical in
// (text, timestamp, isUser) to a stored one is dropped, so retried writes
// cannot duplicate turns. The bool reports whether a document was inserted.
func (h *History) Append(ctx context.Context, text string, isUser bool, timestampMs int64, images []string) (core.Message, bool, error) {
	dup, err := h.exists(ctx, text, isUser, timestampMs)
	if err != nil {
		return core.Message{}, false, err
	}
	if dup {
		log.FromCtx(ctx).Debug().Int64("timestamp", timestampMs).Msg("duplicate message, skipping append")
		return core.Message{}, false, nil
	}

	msg := core.Message{
		ID:        strconv.FormatInt(h.nextID, 10),
		Text:      text,
		IsUser:    isUser,
		Timestamp: timestampMs,
		Images:    images,
	}
	meta := map[string]any{
		core.MetaIsUser:    isUser,
		core.MetaTimestamp: timestampMs,
		core.MetaImages:    images,
	}
	if err := h.index.Insert(ctx, msg.ID, text, meta); err != nil {
		return core.Message{}, false, fmt.Errorf("failed to insert message: %w", err)
	}
	h.nextID++
	return msg, true, nil
}

func (h *History) exists(ctx context.Context, text string, isUser bool, timestampMs int64) (bool, error) {
	docs, err := h.index.GetByFilter(ctx, func(d core.Document) bool {
		return d.Text == text &&
			core.MetaBool(d.Metadata, core.MetaIsUser) == isUser &&
			core.MetaInt64(d.Metadata, core.MetaTimestamp) == timestampMs
	})
	if err != nil {
		return false, fmt.Errorf("failed to check uniqueness: %w", err)
	}
	return len(docs) > 0, nil
}

// Window resolves the anchor and returns the messages with ids in
// [anchor-before, anchor+after], ascending. Ids outside the ledger are
// silently dropped. An unresolvable anchor yields an empty window.
func (h *History) Window(ctx context.Context, anchor Anchor, before, after int) ([]core.Message, error) {
	id, ok, err := anchor.resolve(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve anchor: %w", err)
	}
	if !ok {
		return nil, nil
	}

	ids := make([]string, 0, before+after+1)
	for i := id - int64(before); i <= id+int64(after); i++ {
		if i < 0 {
			continue
		}
		ids = append(ids, strconv.FormatInt(i, 10))
	}

	docs, err := h.index.GetByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch window: %w", err)
	}

	msgs := messagesFromDocs(docs)
	SortByID(msgs)
	return msgs, nil
}

// SearchExact returns up to limit messages whose text contains the substring
// verbatim, in storage order.
func (h *History) SearchExact(ctx context.Context, substring string, limit int) ([]core.Message, error) {
	docs, err := h.index.GetByFilter(ctx, func(d core.Document) bool {
		return strings.Contains(d.Text, substring)
	})
	if err != nil {
		return nil, fmt.Errorf("exact search failed: %w", err)
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return messagesFromDocs(docs), nil
}

// SearchSemantic returns up to limit nearest-neighbor messages for the
// query, in the index's similarity order.
func (h *History) SearchSemantic(ctx context.Context, query string, limit int) ([]core.Message, error) {
	docs, err := h.index.QueryNearest(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w", err)
	}
	return messagesFromDocs(docs), nil
}

// Clear deletes and recreates the namespace and resets the id counter.
func (h *History) Clear(ctx context.Context) error {
	if err := h.index.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset history namespace: %w", err)
	}
	h.nextID = 0
	return nil
}

// SortByID orders messages ascending by numeric ledger id.
func SortByID(msgs []core.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		a, _ := strconv.ParseInt(msgs[i].ID, 10, 64)
		b, _ := strconv.ParseInt(msgs[j].ID, 10, 64)
		return a < b
	})
}

func messagesFromDocs(docs []core.Document) []core.Message {
	msgs := make([]core.Message, 0, len(docs))
	for _, d := range docs {
		msgs = append(msgs, core.Message{
			ID:        d.ID,
			Text:      d.Text,
			IsUser:    core.MetaBool(d.Metadata, core.MetaIsUser),
			Timestamp: core.MetaInt64(d.Metadata, core.MetaTimestamp),
			Images:    core.MetaStrings(d.Metadata, core.MetaImages),
		})
	}
	return msgs
}
