package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/clairebot/internal/core"
)

const followUpTimeLayout = "01/02/2006 15:04"

// FollowUp is the structured output of the "should I send a follow-up?"
// model call. A blank Message means no follow-up.
type FollowUp struct {
	Message string `json:"scheduledMessage"`
	Date    string `json:"date"` // MM/DD/YYYY
	Time    string `json:"time"` // HH:MM, 24-hour
}

// ParseFollowUp pulls the first JSON object out of a model response. Models
// tend to wrap the object in prose or code fences.
func ParseFollowUp(raw string) (FollowUp, error) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return FollowUp{}, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(raw[start:], "}")
	if end == -1 {
		return FollowUp{}, fmt.Errorf("no JSON object found in response")
	}

	var f FollowUp
	if err := json.Unmarshal([]byte(raw[start:start+end+1]), &f); err != nil {
		return FollowUp{}, fmt.Errorf("failed to parse follow-up: %w", err)
	}
	return f, nil
}

// Planner turns a parsed follow-up decision into a queued scheduled message.
type Planner struct {
	queue *Queue
}

func NewPlanner(queue *Queue) *Planner {
	return &Planner{queue: queue}
}

// Schedule validates the follow-up and enqueues it with a fresh unique id.
// A blank message is a deliberate "no follow-up" and enqueues nothing.
func (p *Planner) Schedule(ctx context.Context, f FollowUp) (*core.Message, error) {
	text := strings.TrimSpace(f.Message)
	if text == "" {
		return nil, nil
	}

	at, err := time.ParseInLocation(followUpTimeLayout, f.Date+" "+f.Time, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid follow-up time %q %q: %w", f.Date, f.Time, err)
	}

	msg := core.Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    false,
		Timestamp: at.UnixMilli(),
	}
	if err := p.queue.Enqueue(ctx, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
