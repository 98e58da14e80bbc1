package repository

import (
	"errors"
	"strings"

	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
	"go.mongodb.org/mongo-driver/mongo"
)

func parseError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return serviceerrors.NewNotFoundError("outbox entry not found")
	}
	if mongo.IsDuplicateKeyError(err) {
		return serviceerrors.NewConflictError("duplicate key error")
	}
	if isInvalidObjectIDError(err) {
		return serviceerrors.NewInvalidRequestError("invalid ID format")
	}
	return err
}

func isInvalidObjectIDError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not a valid ObjectID")
}
