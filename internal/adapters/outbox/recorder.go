package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/port"
)

type recorder struct {
	outbox Repository
}

// NewRecorder stores cart events in the outbox for the Handler to relay.
func NewRecorder(outbox Repository) port.EventRecorder {
	return &recorder{outbox: outbox}
}

func (r *recorder) Record(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.GetName(), err)
	}
	if err := r.outbox.Insert(ctx, Entry{
		EventName:  event.GetName(),
		EntityName: event.GetEntityName(),
		EventData:  data,
	}); err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	return nil
}

type discardRecorder struct{}

// NewDiscardRecorder drops every event. Used when the event pipeline is
// disabled.
func NewDiscardRecorder() port.EventRecorder {
	return discardRecorder{}
}

func (discardRecorder) Record(context.Context, domain.Event) error {
	return nil
}
