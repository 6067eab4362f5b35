package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sandevgo/clairebot/internal/core"
)

// Queue is the durable list of not-yet-delivered future messages for one
// profile: a JSON array in <dir>/<uuid>_scheduled.json, rewritten whole on
// each mutation. The mutex guards concurrent mutation within one process;
// cross-process writers are out of contract.
type Queue struct {
	path string
	mu   sync.RWMutex
}

func NewQueue(dir, profileUUID string) *Queue {
	return &Queue{
		path: filepath.Join(dir, profileUUID+"_scheduled.json"),
	}
}

// Enqueue appends the message to the persisted queue.
func (q *Queue) Enqueue(ctx context.Context, msg core.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	msgs, err := q.load()
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)
	return q.save(msgs)
}

// Due returns every queued message whose timestamp has passed.
func (q *Queue) Due(ctx context.Context, now time.Time) ([]core.Message, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	msgs, err := q.load()
	if err != nil {
		return nil, err
	}
	cutoff := now.UnixMilli()
	var due []core.Message
	for _, m := range msgs {
		if m.Timestamp <= cutoff {
			due = append(due, m)
		}
	}
	return due, nil
}

// RemoveByIDs deletes the given entries from the queue. Unknown ids are
// ignored.
func (q *Queue) RemoveByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	msgs, err := q.load()
	if err != nil {
		return err
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	remaining := msgs[:0]
	for _, m := range msgs {
		if _, ok := drop[m.ID]; !ok {
			remaining = append(remaining, m)
		}
	}
	return q.save(remaining)
}

func (q *Queue) load() ([]core.Message, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read scheduled messages: %w", err)
	}
	var msgs []core.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to parse scheduled messages: %w", err)
	}
	return msgs, nil
}

func (q *Queue) save(msgs []core.Message) error {
	if msgs == nil {
		msgs = []core.Message{}
	}
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scheduled messages: %w", err)
	}
	if err := os.WriteFile(q.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scheduled messages: %w", err)
	}
	return nil
}
