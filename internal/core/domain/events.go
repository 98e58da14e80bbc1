package domain

import "time"

const cartEntityName = "cart"

type CartItemAddedEvent struct {
	SessionID  ID        `json:"session_id"`
	ProductID  ProductID `json:"product_id"`
	Name       string    `json:"name"`
	UnitPrice  Amount    `json:"unit_price"`
	Quantity   int       `json:"quantity"`
	ItemCount  int       `json:"item_count"`
	Total      Amount    `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *CartItemAddedEvent) GetName() string {
	return "cart.item_added"
}

func (e *CartItemAddedEvent) GetEntityName() string {
	return cartEntityName
}

func NewCartItemAddedEvent(sessionID ID, line CartLine, cart *Cart) *CartItemAddedEvent {
	return &CartItemAddedEvent{
		SessionID:  sessionID,
		ProductID:  line.ProductID,
		Name:       line.Name,
		UnitPrice:  line.Price,
		Quantity:   line.Quantity,
		ItemCount:  cart.TotalItemCount(),
		Total:      cart.TotalPrice(),
		OccurredAt: time.Now(),
	}
}

type CartItemRemovedEvent struct {
	SessionID  ID        `json:"session_id"`
	ProductID  ProductID `json:"product_id"`
	ItemCount  int       `json:"item_count"`
	Total      Amount    `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *CartItemRemovedEvent) GetName() string {
	return "cart.item_removed"
}

func (e *CartItemRemovedEvent) GetEntityName() string {
	return cartEntityName
}

func NewCartItemRemovedEvent(sessionID ID, productID ProductID, cart *Cart) *CartItemRemovedEvent {
	return &CartItemRemovedEvent{
		SessionID:  sessionID,
		ProductID:  productID,
		ItemCount:  cart.TotalItemCount(),
		Total:      cart.TotalPrice(),
		OccurredAt: time.Now(),
	}
}

type SessionEndedEvent struct {
	SessionID  ID        `json:"session_id"`
	ItemCount  int       `json:"item_count"`
	Total      Amount    `json:"total"`
	StartedAt  time.Time `json:"started_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *SessionEndedEvent) GetName() string {
	return "cart.session_ended"
}

func (e *SessionEndedEvent) GetEntityName() string {
	return cartEntityName
}

func NewSessionEndedEvent(session *Session) *SessionEndedEvent {
	return &SessionEndedEvent{
		SessionID:  session.ID,
		ItemCount:  session.Cart.TotalItemCount(),
		Total:      session.Cart.TotalPrice(),
		StartedAt:  session.StartedAt,
		OccurredAt: time.Now(),
	}
}
