package outbox

import "context"

type Entry struct {
	ID         string
	EventName  string
	EntityName string
	EventData  []byte
	Attempts   int
}

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	// FetchPending returns the oldest entries that have been tried fewer
	// than maxAttempts times.
	FetchPending(ctx context.Context, limit, maxAttempts int) ([]Entry, error)
	MarkFailed(ctx context.Context, id string, cause error) error
	Delete(ctx context.Context, id string) error
}
