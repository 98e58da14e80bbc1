package port

import (
	"context"

	"github.com/rafaelleal24/storefront/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// EventRecorder stores domain events for asynchronous delivery.
type EventRecorder interface {
	Record(ctx context.Context, event domain.Event) error
}
