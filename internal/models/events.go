package models

import "time"

// Event types
const (
	EventTypeOrderCompleted = "ORDER_COMPLETED"
	EventTypeRatingCreated  = "RATING_CREATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCompletedEvent published when the buyer marks an order received.
// Carries everything the settlement pipeline needs so the consumer does
// not depend on the order row still looking the same at consume time.
type OrderCompletedEvent struct {
	BaseEvent
	OrderID      int64     `json:"order_id"`
	SellerID     int64     `json:"seller_id"`
	BuyerID      int64     `json:"buyer_id"`
	Crop         string    `json:"crop"`
	County       string    `json:"county"`
	PricePerUnit int64     `json:"price_per_unit"`
	Unit         string    `json:"unit"`
	CompletedAt  time.Time `json:"completed_at"`
}

// RatingCreatedEvent published when a buyer rates a completed order
type RatingCreatedEvent struct {
	BaseEvent
	RatingID int64 `json:"rating_id"`
	OrderID  int64 `json:"order_id"`
	SellerID int64 `json:"seller_id"`
	Score    int   `json:"score"`
}
