package service

import (
	"context"
	"fmt"
	"time"

	"github.com/moby/locker"

	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/dto"
	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/port"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
	"github.com/rafaelleal24/storefront/internal/core/utils"
)

type CheckoutResult struct {
	Accepted bool
	Session  *domain.Session
}

// CartService hosts one cart per session on top of a session store.
// Commands for the same session run one at a time within this process.
type CartService struct {
	catalogService *CatalogService
	sessions       port.CachePort[domain.Session]
	events         port.EventRecorder
	idempotency    *IdempotencyService[domain.Session]
	sessionTTL     time.Duration
	locks          *locker.Locker
}

func NewCartService(
	catalogService *CatalogService,
	sessions port.CachePort[domain.Session],
	events port.EventRecorder,
	idempotency *IdempotencyService[domain.Session],
	sessionTTL time.Duration,
) *CartService {
	return &CartService{
		catalogService: catalogService,
		sessions:       sessions,
		events:         events,
		idempotency:    idempotency,
		sessionTTL:     sessionTTL,
		locks:          locker.New(),
	}
}

func (s *CartService) StartSession(ctx context.Context) (*domain.Session, error) {
	session := domain.NewSession()

	created, err := s.sessions.SetNX(ctx, string(session.ID), session, s.sessionTTL)
	if err != nil {
		logger.Error(ctx, "session: create failed", err, nil)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if !created {
		return nil, serviceerrors.NewConflictError("session id already in use")
	}

	logger.Info(ctx, "Session started", map[string]any{"session_id": session.ID})
	return session, nil
}

func (s *CartService) GetCart(ctx context.Context, sessionID domain.ID) (*domain.Session, error) {
	return s.load(ctx, sessionID)
}

func (s *CartService) AddItem(ctx context.Context, sessionID domain.ID, idempotencyKey string, request *dto.AddItemRequest) (*domain.Session, error) {
	if idempotencyKey == "" {
		return s.addItem(ctx, sessionID, request.ProductID)
	}

	key := fmt.Sprintf("%s:%s", sessionID, idempotencyKey)
	payloadHash := utils.HashJSON(request)

	existing, err := s.idempotency.Claim(ctx, key, payloadHash)
	if err != nil {
		logger.Error(ctx, "idempotency: claim failed", err, map[string]any{
			"idempotency_key": idempotencyKey,
			"session_id":      sessionID,
		})
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	session, err := s.addItem(ctx, sessionID, request.ProductID)
	if err != nil {
		s.idempotency.Release(ctx, key)
		return nil, err
	}

	s.idempotency.Complete(ctx, key, payloadHash, session)
	return session, nil
}

func (s *CartService) addItem(ctx context.Context, sessionID domain.ID, productID domain.ProductID) (*domain.Session, error) {
	product, err := s.catalogService.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line := session.Cart.AddItem(product.ID, product.Name, product.Price)
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.record(ctx, domain.NewCartItemAddedEvent(session.ID, line, &session.Cart))

	logger.Info(ctx, "Cart item added", map[string]any{
		"session_id": sessionID,
		"product_id": int(product.ID),
		"quantity":   line.Quantity,
	})
	return session, nil
}

// RemoveItem drops the whole line. Removing a product that is not in the
// cart succeeds without touching the store.
func (s *CartService) RemoveItem(ctx context.Context, sessionID domain.ID, productID domain.ProductID) (*domain.Session, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	line, ok := session.Cart.Line(productID)
	if !ok {
		return session, nil
	}
	session.Cart.RemoveItem(productID)

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.record(ctx, domain.NewCartItemRemovedEvent(session.ID, productID, &session.Cart))

	logger.Info(ctx, "Cart item removed", map[string]any{
		"session_id": sessionID,
		"product_id": int(productID),
		"quantity":   line.Quantity,
	})
	return session, nil
}

// Checkout is a placeholder: it is refused for an empty cart and otherwise
// accepted without changing any state.
func (s *CartService) Checkout(ctx context.Context, sessionID domain.ID) (*CheckoutResult, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Cart.IsEmpty() {
		return nil, serviceerrors.NewUnprocessableEntityError("checkout is disabled for an empty cart")
	}

	logger.Info(ctx, "Checkout requested", map[string]any{
		"session_id": sessionID,
		"item_count": session.Cart.TotalItemCount(),
		"total":      session.Cart.TotalPrice().String(),
	})
	return &CheckoutResult{Accepted: true, Session: session}, nil
}

func (s *CartService) EndSession(ctx context.Context, sessionID domain.ID) error {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessions.Del(ctx, string(sessionID)); err != nil {
		logger.Error(ctx, "session: delete failed", err, map[string]any{"session_id": sessionID})
		return fmt.Errorf("failed to end session: %w", err)
	}

	s.record(ctx, domain.NewSessionEndedEvent(session))

	logger.Info(ctx, "Session ended", map[string]any{"session_id": sessionID})
	return nil
}

// lockSession holds the session's lock until the returned func is called.
// The locker drops an entry once nobody holds or waits on it.
func (s *CartService) lockSession(sessionID domain.ID) (unlock func()) {
	s.locks.Lock(string(sessionID))
	return func() {
		_ = s.locks.Unlock(string(sessionID))
	}
}

func (s *CartService) load(ctx context.Context, sessionID domain.ID) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, string(sessionID))
	if err != nil {
		logger.Error(ctx, "session: get failed", err, map[string]any{"session_id": sessionID})
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, serviceerrors.NewNotFoundError("session not found")
	}
	return session, nil
}

func (s *CartService) save(ctx context.Context, session *domain.Session) error {
	session.Touch()
	if err := s.sessions.Set(ctx, string(session.ID), session, s.sessionTTL); err != nil {
		logger.Error(ctx, "session: save failed", err, map[string]any{"session_id": session.ID})
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// record never fails the command; delivery is best effort.
func (s *CartService) record(ctx context.Context, event domain.Event) {
	if err := s.events.Record(ctx, event); err != nil {
		logger.Error(ctx, "events: record failed", err, map[string]any{
			"event_name": event.GetName(),
		})
	}
}
