package domain

import "time"

// Session owns the cart of one shopper. It is discarded when it ends or
// expires.
type Session struct {
	ID        ID
	Cart      Cart
	StartedAt time.Time
	UpdatedAt time.Time
}

func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        NewID(),
		Cart:      *NewCart(),
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Touch() {
	s.UpdatedAt = time.Now()
}
