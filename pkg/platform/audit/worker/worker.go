// Package worker relays committed outbox rows to Kafka. Running the
// relay outside the request path keeps audit writes transactional with
// the business change while Kafka remains the downstream source of truth.
package worker

import (
	"context"
	"log/slog"
	"time"

	"tangible/pkg/platform/audit/store/postgres"
)

// Sink is where claimed outbox entries are delivered.
type Sink interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Relay polls the outbox and publishes pending entries.
type Relay struct {
	store    *postgres.Store
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewRelay builds an outbox relay with the given poll interval.
func NewRelay(store *postgres.Store, sink Sink, logger *slog.Logger, interval time.Duration) *Relay {
	return &Relay{
		store:    store,
		sink:     sink,
		logger:   logger,
		interval: interval,
		batch:    100,
	}
}

// Run polls until the context is cancelled. Publish failures leave the
// row unpublished; the next pass retries it.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.relayOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

func (r *Relay) relayOnce(ctx context.Context) error {
	entries, err := r.store.ClaimPending(ctx, r.batch)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := r.sink.Publish(ctx, entry.ID.String(), entry.Payload); err != nil {
			r.logger.WarnContext(ctx, "audit publish failed, will retry",
				"entry_id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			continue
		}
		if err := r.store.MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
	}
	return nil
}
