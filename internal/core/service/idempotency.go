package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/port"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
)

type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "processing"
	IdempotencyCompleted  IdempotencyStatus = "completed"
)

type IdempotencyEntry[T any] struct {
	Status      IdempotencyStatus `json:"status"`
	PayloadHash string            `json:"payload_hash"`
	Result      *T                `json:"result,omitempty"`
}

// IdempotencyService makes a command with a client supplied key run at most
// once. The first caller claims the key, later callers with the same payload
// wait for and receive the first result.
type IdempotencyService[T any] struct {
	cache        port.CachePort[IdempotencyEntry[T]]
	ttl          time.Duration
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func NewIdempotencyService[T any](
	cache port.CachePort[IdempotencyEntry[T]],
	ttl time.Duration,
	pollInterval time.Duration,
	pollTimeout time.Duration,
) *IdempotencyService[T] {
	return &IdempotencyService[T]{
		cache:        cache,
		ttl:          ttl,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// Claim returns (nil, nil) when the caller now owns the key and must run the
// command, or the stored result of a previous run.
func (s *IdempotencyService[T]) Claim(ctx context.Context, key, payloadHash string) (*T, error) {
	claimed, err := s.cache.SetNX(ctx, key, &IdempotencyEntry[T]{
		Status:      IdempotencyProcessing,
		PayloadHash: payloadHash,
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("idempotency claim failed: %w", err)
	}

	if claimed {
		return nil, nil
	}

	return s.waitForCompletion(ctx, key, payloadHash)
}

func (s *IdempotencyService[T]) Complete(ctx context.Context, key, payloadHash string, result *T) {
	err := s.cache.Set(ctx, key, &IdempotencyEntry[T]{
		Status:      IdempotencyCompleted,
		PayloadHash: payloadHash,
		Result:      result,
	}, s.ttl)
	if err != nil {
		logger.Error(ctx, "idempotency: complete failed", err, map[string]any{
			"idempotency_key": key,
			"payload_hash":    payloadHash,
		})
	}
}

// Release frees the key after a failed run so the client can retry.
func (s *IdempotencyService[T]) Release(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, key); err != nil {
		logger.Error(ctx, "idempotency: release failed", err, map[string]any{
			"idempotency_key": key,
		})
	}
}

// checkEntry reports done=true once the caller has an answer: a result or
// an error.
func (s *IdempotencyService[T]) checkEntry(ctx context.Context, key, payloadHash string) (result *T, done bool, err error) {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, true, fmt.Errorf("idempotency check failed: %w", err)
	}

	switch {
	case entry == nil:
		return nil, true, serviceerrors.NewConflictError("previous request failed, retry with the same key")
	case entry.PayloadHash != payloadHash:
		return nil, true, serviceerrors.NewUnprocessableEntityError("idempotency key already used with a different payload")
	case entry.Status == IdempotencyCompleted:
		return entry.Result, true, nil
	default:
		return nil, false, nil
	}
}

func (s *IdempotencyService[T]) waitForCompletion(ctx context.Context, key, payloadHash string) (*T, error) {
	if result, done, err := s.checkEntry(ctx, key, payloadHash); done {
		return result, err
	}

	timeout := time.After(s.pollTimeout)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, serviceerrors.NewConflictError("idempotency key still being processed, timed out")
		case <-ticker.C:
			if result, done, err := s.checkEntry(ctx, key, payloadHash); done {
				return result, err
			}
		}
	}
}
