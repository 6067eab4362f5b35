package scheduler

import (
	"context"
	"time"

	"github.com/sandevgo/clairebot/internal/service/history"
	"github.com/sandevgo/clairebot/pkg/log"
	"github.com/sandevgo/clairebot/pkg/retry"
)

const defaultPollInterval = time.Minute

// Delivery polls one profile's queue and merges due messages into the
// ledger. Append happens before removal, so a crash in between re-delivers
// on the next tick; the ledger's content dedup makes that idempotent
// (at-least-once delivery).
type Delivery struct {
	queue    *Queue
	history  *history.History
	retrier  *retry.Retrier
	Interval time.Duration
	now      func() time.Time
}

func NewDelivery(queue *Queue, hist *history.History) *Delivery {
	return &Delivery{
		queue:    queue,
		history:  hist,
		retrier:  retry.NewDefaultRetrier(),
		Interval: defaultPollInterval,
		now:      time.Now,
	}
}

func (d *Delivery) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting scheduled message delivery")

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := d.deliverDue(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduled delivery failed")
			}
		}
	}
}

func (d *Delivery) Shutdown(ctx context.Context) error {
	return nil
}

func (d *Delivery) deliverDue(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	due, err := d.queue.Due(ctx, d.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	delivered := make([]string, 0, len(due))
	for _, m := range due {
		msg := m
		err := d.retrier.Do(ctx, func() error {
			_, _, err := d.history.Append(ctx, msg.Text, false, msg.Timestamp, msg.Images)
			return err
		})
		if err != nil {
			// Left in the queue; the next tick retries.
			logger.Error().Err(err).Str("id", msg.ID).Msg("failed to deliver scheduled message")
			continue
		}
		delivered = append(delivered, msg.ID)
	}

	if len(delivered) == 0 {
		return nil
	}
	logger.Info().Int("count", len(delivered)).Msg("delivered scheduled messages")
	return d.queue.RemoveByIDs(ctx, delivered)
}
