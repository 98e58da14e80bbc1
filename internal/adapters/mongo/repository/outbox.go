package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rafaelleal24/storefront/internal/adapters/mongo/document"
	"github.com/rafaelleal24/storefront/internal/adapters/outbox"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const outboxCollection = "outbox"

type OutboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) *OutboxRepository {
	return &OutboxRepository{
		collection: db.Collection(outboxCollection),
	}
}

var _ outbox.Repository = (*OutboxRepository)(nil)

// EnsureIndexes creates the index FetchPending sorts and filters on.
func (r *OutboxRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "attempts", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox index: %w", err)
	}
	return nil
}

func (r *OutboxRepository) Insert(ctx context.Context, entry outbox.Entry) error {
	doc := document.OutboxDocument{
		EventName:  entry.EventName,
		EntityName: entry.EntityName,
		EventData:  string(entry.EventData),
		CreatedAt:  time.Now(),
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return parseError(err)
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit, maxAttempts int) ([]outbox.Entry, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	filter := bson.M{"attempts": bson.M{"$lt": maxAttempts}}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, parseError(err)
	}
	defer cursor.Close(ctx)

	var docs []document.OutboxDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, parseError(err)
	}

	entries := make([]outbox.Entry, len(docs))
	for i, doc := range docs {
		entries[i] = outbox.Entry{
			ID:         doc.ID.Hex(),
			EventName:  doc.EventName,
			EntityName: doc.EntityName,
			EventData:  []byte(doc.EventData),
			Attempts:   doc.Attempts,
		}
	}

	return entries, nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, cause error) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return parseError(err)
	}

	update := bson.M{"$inc": bson.M{"attempts": 1}}
	if cause != nil {
		update["$set"] = bson.M{"last_error": cause.Error()}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return parseError(err)
	}
	if result.MatchedCount == 0 {
		return parseError(mongo.ErrNoDocuments)
	}
	return nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return parseError(err)
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	return parseError(err)
}
