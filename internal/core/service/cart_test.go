package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/moby/locker"

	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/dto"
	"github.com/rafaelleal24/storefront/internal/core/port/mock"
	"github.com/rafaelleal24/storefront/internal/core/serviceerrors"
	"github.com/rafaelleal24/storefront/internal/core/utils"
	"go.uber.org/mock/gomock"
)

const testSessionTTL = 30 * time.Minute

// fakeStore is a CachePort that round-trips values through JSON like the
// real stores do, so callers never share pointers with it.
type fakeStore[T any] struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeStore[T any]() *fakeStore[T] {
	return &fakeStore[T]{data: make(map[string][]byte)}
}

func (f *fakeStore[T]) Get(_ context.Context, key string) (*T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (f *fakeStore[T]) Set(_ context.Context, key string, value *T, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

func (f *fakeStore[T]) SetNX(ctx context.Context, key string, value *T, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	_, exists := f.data[key]
	f.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, f.Set(ctx, key, value, ttl)
}

func (f *fakeStore[T]) Del(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

type cartMocks struct {
	sessions  *mock.MockCachePort[domain.Session]
	events    *mock.MockEventRecorder
	idemCache *mock.MockCachePort[IdempotencyEntry[domain.Session]]
}

func testCatalogService(t *testing.T) *CatalogService {
	t.Helper()
	catalog, err := domain.DefaultCatalog()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return NewCatalogService(catalog)
}

func setupCartService(t *testing.T) (*CartService, *cartMocks) {
	ctrl := gomock.NewController(t)

	sessions := mock.NewMockCachePort[domain.Session](ctrl)
	events := mock.NewMockEventRecorder(ctrl)
	idemCache := mock.NewMockCachePort[IdempotencyEntry[domain.Session]](ctrl)
	idemSvc := NewIdempotencyService[domain.Session](idemCache, 15*time.Minute, 50*time.Millisecond, 500*time.Millisecond)

	svc := NewCartService(testCatalogService(t), sessions, events, idemSvc, testSessionTTL)
	return svc, &cartMocks{sessions: sessions, events: events, idemCache: idemCache}
}

func newTestSession() *domain.Session {
	s := domain.NewSession()
	return s
}

func TestCartService_StartSession(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().
			SetNX(gomock.Any(), gomock.Any(), gomock.Any(), testSessionTTL).
			DoAndReturn(func(_ context.Context, key string, s *domain.Session, _ time.Duration) (bool, error) {
				if key != string(s.ID) {
					t.Fatalf("expected key %q, got %q", s.ID, key)
				}
				return true, nil
			})

		session, err := svc.StartSession(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !domain.ValidateID(string(session.ID)) {
			t.Fatalf("expected valid session id, got %q", session.ID)
		}
		if !session.Cart.IsEmpty() {
			t.Fatal("expected empty cart")
		}
	})

	t.Run("store error", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().
			SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, errors.New("redis down"))

		if _, err := svc.StartSession(context.Background()); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("id collision", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().
			SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(false, nil)

		_, err := svc.StartSession(context.Background())
		if !serviceerrors.IsOfKind(err, serviceerrors.KindConflict) {
			t.Fatalf("expected KindConflict, got %v", err)
		}
	})
}

func TestCartService_GetCart(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()

		m.sessions.EXPECT().Get(gomock.Any(), string(session.ID)).Return(session, nil)

		got, err := svc.GetCart(context.Background(), session.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ID != session.ID {
			t.Fatalf("expected session %s, got %s", session.ID, got.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := svc.GetCart(context.Background(), domain.NewID())
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}
	})

	t.Run("store error", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))

		_, err := svc.GetCart(context.Background(), domain.NewID())
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatal("store errors must not look like a missing session")
		}
	})
}

func TestCartService_AddItem(t *testing.T) {
	t.Run("adds catalog snapshot and records event", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()

		m.sessions.EXPECT().Get(gomock.Any(), string(session.ID)).Return(session, nil)
		m.sessions.EXPECT().
			Set(gomock.Any(), string(session.ID), gomock.Any(), testSessionTTL).
			DoAndReturn(func(_ context.Context, _ string, s *domain.Session, _ time.Duration) error {
				if len(s.Cart.Lines) != 1 {
					t.Fatalf("expected 1 line, got %d", len(s.Cart.Lines))
				}
				line := s.Cart.Lines[0]
				if line.ProductID != 2 || line.Name != "Mug" || line.Price != 1000 || line.Quantity != 1 {
					t.Fatalf("unexpected line %+v", line)
				}
				return nil
			})
		m.events.EXPECT().
			Record(gomock.Any(), gomock.AssignableToTypeOf(&domain.CartItemAddedEvent{})).
			Return(nil)

		got, err := svc.AddItem(context.Background(), session.ID, "", &dto.AddItemRequest{ProductID: 2})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Cart.TotalItemCount() != 1 || got.Cart.TotalPrice() != 1000 {
			t.Fatalf("unexpected totals %d / %d", got.Cart.TotalItemCount(), got.Cart.TotalPrice())
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := setupCartService(t)

		_, err := svc.AddItem(context.Background(), domain.NewID(), "", &dto.AddItemRequest{ProductID: 99})
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := svc.AddItem(context.Background(), domain.NewID(), "", &dto.AddItemRequest{ProductID: 1})
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}
	})

	t.Run("save failure does not record event", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(session, nil)
		m.sessions.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		if _, err := svc.AddItem(context.Background(), session.ID, "", &dto.AddItemRequest{ProductID: 1}); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("event failure does not fail the command", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(session, nil)
		m.sessions.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.events.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("mongo down"))

		if _, err := svc.AddItem(context.Background(), session.ID, "", &dto.AddItemRequest{ProductID: 1}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("idempotency key - first request completes key", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()
		request := &dto.AddItemRequest{ProductID: 1}
		key := string(session.ID) + ":add-1"

		m.idemCache.EXPECT().SetNX(gomock.Any(), key, gomock.Any(), 15*time.Minute).Return(true, nil)
		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(session, nil)
		m.sessions.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		m.events.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
		m.idemCache.EXPECT().
			Set(gomock.Any(), key, gomock.Any(), 15*time.Minute).
			DoAndReturn(func(_ context.Context, _ string, entry *IdempotencyEntry[domain.Session], _ time.Duration) error {
				if entry.Status != IdempotencyCompleted {
					t.Fatalf("expected completed entry, got %q", entry.Status)
				}
				if entry.PayloadHash != utils.HashJSON(request) {
					t.Fatal("expected payload hash of the request")
				}
				return nil
			})

		if _, err := svc.AddItem(context.Background(), session.ID, "add-1", request); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("idempotency key - replay returns stored result", func(t *testing.T) {
		svc, m := setupCartService(t)
		request := &dto.AddItemRequest{ProductID: 1}
		stored := newTestSession()
		stored.Cart.AddItem(1, "T-Shirt", 2000)

		m.idemCache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
		m.idemCache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(&IdempotencyEntry[domain.Session]{
			Status:      IdempotencyCompleted,
			PayloadHash: utils.HashJSON(request),
			Result:      stored,
		}, nil)

		got, err := svc.AddItem(context.Background(), stored.ID, "add-1", request)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Cart.TotalItemCount() != 1 {
			t.Fatalf("expected stored cart, got %d items", got.Cart.TotalItemCount())
		}
	})

	t.Run("idempotency key - reused with different product", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.idemCache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
		m.idemCache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(&IdempotencyEntry[domain.Session]{
			Status:      IdempotencyCompleted,
			PayloadHash: utils.HashJSON(&dto.AddItemRequest{ProductID: 1}),
		}, nil)

		_, err := svc.AddItem(context.Background(), domain.NewID(), "add-1", &dto.AddItemRequest{ProductID: 2})
		if !serviceerrors.IsOfKind(err, serviceerrors.KindUnprocessableEntity) {
			t.Fatalf("expected KindUnprocessableEntity, got %v", err)
		}
	})

	t.Run("idempotency key - released on failure", func(t *testing.T) {
		svc, m := setupCartService(t)
		sessionID := domain.NewID()

		m.idemCache.EXPECT().SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
		m.idemCache.EXPECT().Del(gomock.Any(), string(sessionID)+":add-1").Return(nil)

		_, err := svc.AddItem(context.Background(), sessionID, "add-1", &dto.AddItemRequest{ProductID: 99})
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}
	})
}

func TestCartService_RemoveItem(t *testing.T) {
	t.Run("removes whole line", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()
		session.Cart.AddItem(1, "T-Shirt", 2000)
		session.Cart.AddItem(1, "T-Shirt", 2000)
		session.Cart.AddItem(2, "Mug", 1000)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(session, nil)
		m.sessions.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), testSessionTTL).Return(nil)
		m.events.EXPECT().
			Record(gomock.Any(), gomock.AssignableToTypeOf(&domain.CartItemRemovedEvent{})).
			Return(nil)

		got, err := svc.RemoveItem(context.Background(), session.ID, 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.Cart.Lines) != 1 || got.Cart.Lines[0].ProductID != 2 {
			t.Fatalf("unexpected lines %+v", got.Cart.Lines)
		}
	})

	t.Run("missing line is a no-op", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()
		session.Cart.AddItem(2, "Mug", 1000)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(session, nil)

		got, err := svc.RemoveItem(context.Background(), session.ID, 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got.Cart.Lines) != 1 {
			t.Fatalf("expected cart unchanged, got %+v", got.Cart.Lines)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)

		_, err := svc.RemoveItem(context.Background(), domain.NewID(), 1)
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}
	})
}

func TestCartService_Checkout(t *testing.T) {
	t.Run("disabled for empty cart", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(newTestSession(), nil)

		_, err := svc.Checkout(context.Background(), domain.NewID())
		if !serviceerrors.IsOfKind(err, serviceerrors.KindUnprocessableEntity) {
			t.Fatalf("expected KindUnprocessableEntity, got %v", err)
		}
	})

	t.Run("accepted without side effects", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()
		session.Cart.AddItem(4, "Hoodie", 3500)

		// no Set, Del or Record expectations: any call fails the test
		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(session, nil)

		result, err := svc.Checkout(context.Background(), session.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Accepted {
			t.Fatal("expected checkout to be accepted")
		}
		if result.Session.Cart.TotalItemCount() != 1 {
			t.Fatal("expected cart to be unchanged")
		}
	})
}

func TestCartService_EndSession(t *testing.T) {
	t.Run("deletes session and records event", func(t *testing.T) {
		svc, m := setupCartService(t)
		session := newTestSession()

		m.sessions.EXPECT().Get(gomock.Any(), string(session.ID)).Return(session, nil)
		m.sessions.EXPECT().Del(gomock.Any(), string(session.ID)).Return(nil)
		m.events.EXPECT().
			Record(gomock.Any(), gomock.AssignableToTypeOf(&domain.SessionEndedEvent{})).
			Return(nil)

		if err := svc.EndSession(context.Background(), session.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)

		err := svc.EndSession(context.Background(), domain.NewID())
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			t.Fatalf("expected KindNotFound, got %v", err)
		}
	})

	t.Run("delete failure", func(t *testing.T) {
		svc, m := setupCartService(t)

		m.sessions.EXPECT().Get(gomock.Any(), gomock.Any()).Return(newTestSession(), nil)
		m.sessions.EXPECT().Del(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		if err := svc.EndSession(context.Background(), domain.NewID()); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

type discardRecorder struct{}

func (discardRecorder) Record(context.Context, domain.Event) error { return nil }

func TestCartService_Scenario(t *testing.T) {
	sessions := newFakeStore[domain.Session]()
	idemSvc := NewIdempotencyService[domain.Session](newFakeStore[IdempotencyEntry[domain.Session]](), time.Minute, 10*time.Millisecond, 100*time.Millisecond)
	svc := NewCartService(testCatalogService(t), sessions, discardRecorder{}, idemSvc, testSessionTTL)
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	for _, id := range []domain.ProductID{1, 2, 1} {
		if _, err := svc.AddItem(ctx, session.ID, "", &dto.AddItemRequest{ProductID: id}); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}

	cart, _ := svc.GetCart(ctx, session.ID)
	if cart.Cart.TotalItemCount() != 3 || cart.Cart.TotalPrice().String() != "$50.00" {
		t.Fatalf("unexpected totals %d / %s", cart.Cart.TotalItemCount(), cart.Cart.TotalPrice())
	}

	// a retried add with the same key is applied once
	for i := 0; i < 2; i++ {
		if _, err := svc.AddItem(ctx, session.ID, "retry-1", &dto.AddItemRequest{ProductID: 5}); err != nil {
			t.Fatalf("idempotent add %d: %v", i, err)
		}
	}
	cart, _ = svc.GetCart(ctx, session.ID)
	if line, _ := cart.Cart.Line(5); line.Quantity != 1 {
		t.Fatalf("expected cap quantity 1, got %d", line.Quantity)
	}

	if _, err := svc.RemoveItem(ctx, session.ID, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, session.ID, 5); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cart, _ = svc.GetCart(ctx, session.ID)
	if cart.Cart.TotalItemCount() != 1 || cart.Cart.TotalPrice().String() != "$10.00" {
		t.Fatalf("unexpected totals %d / %s", cart.Cart.TotalItemCount(), cart.Cart.TotalPrice())
	}

	if _, err := svc.Checkout(ctx, session.ID); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := svc.RemoveItem(ctx, session.ID, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.Checkout(ctx, session.ID); !serviceerrors.IsOfKind(err, serviceerrors.KindUnprocessableEntity) {
		t.Fatalf("expected checkout disabled, got %v", err)
	}

	if err := svc.EndSession(ctx, session.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if _, err := svc.GetCart(ctx, session.ID); !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
		t.Fatalf("expected session to be gone, got %v", err)
	}
}

func TestCartService_ConcurrentAddsAreSerialized(t *testing.T) {
	sessions := newFakeStore[domain.Session]()
	idemSvc := NewIdempotencyService[domain.Session](newFakeStore[IdempotencyEntry[domain.Session]](), time.Minute, 10*time.Millisecond, 100*time.Millisecond)
	svc := NewCartService(testCatalogService(t), sessions, discardRecorder{}, idemSvc, testSessionTTL)
	ctx := context.Background()

	session, err := svc.StartSession(ctx)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	const adds = 50
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, session.ID, "", &dto.AddItemRequest{ProductID: 3}); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	cart, _ := svc.GetCart(ctx, session.ID)
	if line, _ := cart.Cart.Line(3); line.Quantity != adds {
		t.Fatalf("expected quantity %d, got %d", adds, line.Quantity)
	}
	if err := svc.locks.Unlock(string(session.ID)); !errors.Is(err, locker.ErrNoSuchLock) {
		t.Fatalf("expected lock table to be drained, got %v", err)
	}
}

func TestCartService_LockSession(t *testing.T) {
	svc := NewCartService(testCatalogService(t), newFakeStore[domain.Session](), discardRecorder{}, nil, testSessionTTL)

	t.Run("same session is exclusive", func(t *testing.T) {
		unlock := svc.lockSession("a")

		acquired := make(chan struct{})
		go func() {
			release := svc.lockSession("a")
			close(acquired)
			release()
		}()

		select {
		case <-acquired:
			t.Fatal("second lock acquired while first was held")
		case <-time.After(50 * time.Millisecond):
		}

		unlock()
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("second lock never acquired")
		}
	})

	t.Run("different sessions do not block", func(t *testing.T) {
		unlockA := svc.lockSession("a")
		defer unlockA()

		done := make(chan struct{})
		go func() {
			svc.lockSession("b")()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("lock on another session blocked")
		}
	})

	t.Run("entries are released", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc.lockSession("c")()
			}()
		}
		wg.Wait()

		if err := svc.locks.Unlock("c"); !errors.Is(err, locker.ErrNoSuchLock) {
			t.Fatalf("expected no entry for a released session, got %v", err)
		}
	})
}
