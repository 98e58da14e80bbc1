package outbox

import (
	"context"
	"time"

	"github.com/rafaelleal24/storefront/internal/adapters/config"
	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/port"
)

// Handler relays outbox entries to the broker and deletes them once
// published. Entries that keep failing are parked after MaxAttempts.
type Handler struct {
	outbox      Repository
	broker      port.BrokerPort
	interval    time.Duration
	batch       int
	maxAttempts int
}

func NewHandler(outbox Repository, broker port.BrokerPort, config config.OutboxConfig) *Handler {
	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Handler{
		outbox:      outbox,
		broker:      broker,
		interval:    config.Interval,
		batch:       config.BatchSize,
		maxAttempts: maxAttempts,
	}
}

func (h *Handler) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.processEvents(ctx)
		}
	}
}

func (h *Handler) processEvents(ctx context.Context) {
	entries, err := h.outbox.FetchPending(ctx, h.batch, h.maxAttempts)
	if err != nil {
		logger.Error(ctx, "outbox: failed to fetch pending events", err, map[string]any{
			"batch": h.batch,
		})
		return
	}

	for _, entry := range entries {
		attrs := map[string]any{
			"event_id":    entry.ID,
			"event_name":  entry.EventName,
			"entity_name": entry.EntityName,
			"attempt":     entry.Attempts + 1,
		}
		if err := h.broker.PublishRaw(ctx, entry.EventName, entry.EntityName, entry.EventData); err != nil {
			logger.Error(ctx, "outbox: failed to publish event", err, attrs)
			if markErr := h.outbox.MarkFailed(ctx, entry.ID, err); markErr != nil {
				logger.Error(ctx, "outbox: failed to record publish failure", markErr, attrs)
			}
			if entry.Attempts+1 >= h.maxAttempts {
				logger.Warn(ctx, "outbox: event parked after max attempts", attrs)
			}
			continue
		}

		logger.Debug(ctx, "outbox: event published", attrs)

		if err := h.outbox.Delete(ctx, entry.ID); err != nil {
			logger.Error(ctx, "outbox: failed to delete event after publish", err, attrs)
		}
	}
}
