package memory

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandevgo/clairebot/internal/core"
)

const transcriptEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// CountTokens measures text against the transcript token budget. When the
// BPE data cannot be loaded (offline), it falls back to a bytes/4 estimate.
func CountTokens(text string) int {
	encOnce.Do(func() {
		if e, err := tiktoken.GetEncoding(transcriptEncoding); err == nil {
			enc = e
		}
	})
	if enc == nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// Serialize renders messages as a prefixed transcript, one line per turn.
func Serialize(msgs []core.Message, humanPrefix, aiPrefix string) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, transcriptLine(m, humanPrefix, aiPrefix))
	}
	return strings.Join(lines, "\n")
}

func transcriptLine(m core.Message, humanPrefix, aiPrefix string) string {
	prefix := aiPrefix
	if m.IsUser {
		prefix = humanPrefix
	}
	return prefix + ": " + m.Text
}

// TrimToBudget drops the oldest whole messages until the serialized
// transcript fits the token budget. The newest message is always kept.
// budget <= 0 disables trimming.
func TrimToBudget(msgs []core.Message, humanPrefix, aiPrefix string, budget int, count func(string) int) []core.Message {
	if budget <= 0 || len(msgs) == 0 {
		return msgs
	}
	total := 0
	cut := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		total += count(transcriptLine(msgs[i], humanPrefix, aiPrefix))
		if total > budget && i < len(msgs)-1 {
			break
		}
		cut = i
	}
	return msgs[cut:]
}
