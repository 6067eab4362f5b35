package history

import (
	"context"
	"strconv"

	"github.com/sandevgo/clairebot/internal/core"
)

type anchorKind int

const (
	anchorLatest anchorKind = iota
	anchorID
	anchorContent
)

// Anchor identifies the message a history window is centered on. It is one
// of three variants: the most recent message, an explicit ledger id, or a
// message matched by content when the caller does not know its id.
type Anchor struct {
	kind anchorKind
	id   string
	msg  core.Message
}

// Latest anchors on the most recently appended message.
func Latest() Anchor {
	return Anchor{kind: anchorLatest}
}

// ByID anchors on an explicit ledger id.
func ByID(id string) Anchor {
	return Anchor{kind: anchorID, id: id}
}

// ByContent anchors on a message located by its (timestamp, isUser) pair,
// disambiguated by exact text and smallest timestamp distance.
func ByContent(msg core.Message) Anchor {
	return Anchor{kind: anchorContent, msg: msg}
}

// resolve maps the anchor to a numeric ledger id. ok is false when no
// message matches; per contract that is an empty window, not an error.
func (a Anchor) resolve(ctx context.Context, h *History) (int64, bool, error) {
	switch a.kind {
	case anchorLatest:
		id := h.nextID - 1
		return id, id >= 0, nil
	case anchorID:
		id, err := strconv.ParseInt(a.id, 10, 64)
		if err != nil {
			return 0, false, nil
		}
		return id, true, nil
	case anchorContent:
		return a.resolveByContent(ctx, h)
	}
	return 0, false, nil
}

func (a Anchor) resolveByContent(ctx context.Context, h *History) (int64, bool, error) {
	want := a.msg
	docs, err := h.index.GetByFilter(ctx, func(d core.Document) bool {
		return core.MetaInt64(d.Metadata, core.MetaTimestamp) == want.Timestamp &&
			core.MetaBool(d.Metadata, core.MetaIsUser) == want.IsUser
	})
	if err != nil {
		return 0, false, err
	}

	// Among timestamp matches, keep only exact text matches, then take the
	// candidate whose stored timestamp is closest to the anchor's.
	var (
		bestID   int64
		bestDist int64 = -1
	)
	for _, d := range docs {
		if d.Text != want.Text {
			continue
		}
		id, err := strconv.ParseInt(d.ID, 10, 64)
		if err != nil {
			continue
		}
		dist := core.MetaInt64(d.Metadata, core.MetaTimestamp) - want.Timestamp
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			bestID, bestDist = id, dist
		}
	}
	if bestDist < 0 {
		return 0, false, nil
	}
	return bestID, true, nil
}
