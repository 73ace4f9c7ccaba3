package models

import "time"

// Seller represents a farmer selling produce on the marketplace
type Seller struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	County    string    `db:"county" json:"county"`
	Verified  bool      `db:"verified" json:"verified"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Listing represents a produce listing offered by a seller
type Listing struct {
	ID           int64     `db:"id" json:"id"`
	SellerID     int64     `db:"seller_id" json:"seller_id"`
	Crop         string    `db:"crop" json:"crop"`
	County       string    `db:"county" json:"county"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Unit         string    `db:"unit" json:"unit"`
	PricePerUnit int64     `db:"price_per_unit" json:"price_per_unit"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Order represents a single produce purchase
type Order struct {
	ID                int64      `db:"id" json:"id"`
	Reference         string     `db:"reference" json:"reference"`
	ListingID         int64      `db:"listing_id" json:"listing_id"`
	SellerID          int64      `db:"seller_id" json:"seller_id"`
	BuyerID           int64      `db:"buyer_id" json:"buyer_id"`
	Crop              string     `db:"crop" json:"crop"`
	County            string     `db:"county" json:"county"`
	Quantity          float64    `db:"quantity" json:"quantity"`
	Unit              string     `db:"unit" json:"unit"`
	PricePerUnit      int64      `db:"price_per_unit" json:"price_per_unit"`
	TotalAmount       int64      `db:"total_amount" json:"total_amount"`
	FulfillmentType   string     `db:"fulfillment_type" json:"fulfillment_type"`
	PaymentStatus     string     `db:"payment_status" json:"payment_status"`
	FulfillmentStatus string     `db:"fulfillment_status" json:"fulfillment_status"`
	PaidAt            *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	ConfirmedBySeller *time.Time `db:"confirmed_by_seller_at" json:"confirmed_by_seller_at,omitempty"`
	ReceivedByBuyer   *time.Time `db:"received_by_buyer_at" json:"received_by_buyer_at,omitempty"`
	DisputeReason     *string    `db:"dispute_reason" json:"dispute_reason,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Payment represents a payment transaction against an order
type Payment struct {
	ID           int64     `db:"id" json:"id"`
	OrderID      int64     `db:"order_id" json:"order_id"`
	Status       string    `db:"status" json:"status"`
	ProviderTxID string    `db:"provider_tx_id" json:"provider_tx_id,omitempty"`
	Amount       int64     `db:"amount" json:"amount"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TrustScore is a seller's composite reputation record, one row per seller
type TrustScore struct {
	SellerID          int64     `db:"seller_id" json:"seller_id"`
	VerificationScore float64   `db:"verification_score" json:"verification_score"`
	TransactionScore  float64   `db:"transaction_score" json:"transaction_score"`
	RatingScore       float64   `db:"rating_score" json:"rating_score"`
	ReliabilityScore  float64   `db:"reliability_score" json:"reliability_score"`
	CompositeScore    float64   `db:"composite_score" json:"composite_score"`
	Tier              string    `db:"tier" json:"tier"`
	CalculatedAt      time.Time `db:"calculated_at" json:"calculated_at"`
}

// PriceAlert is a seller's standing instruction to be notified when a
// crop/county trades at or above a target price
type PriceAlert struct {
	ID              int64      `db:"id" json:"id"`
	SellerID        int64      `db:"seller_id" json:"seller_id"`
	Crop            string     `db:"crop" json:"crop"`
	County          string     `db:"county" json:"county"`
	TargetPrice     int64      `db:"target_price" json:"target_price"`
	Unit            string     `db:"unit" json:"unit"`
	NotifyMethod    string     `db:"notify_method" json:"notify_method"`
	Recipient       string     `db:"recipient" json:"recipient"`
	Active          bool       `db:"active" json:"active"`
	LastTriggeredAt *time.Time `db:"last_triggered_at" json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// PriceObservation is an append-only price point tagged with its provenance
type PriceObservation struct {
	ID           int64     `db:"id" json:"id"`
	Crop         string    `db:"crop" json:"crop"`
	County       string    `db:"county" json:"county"`
	PricePerUnit int64     `db:"price_per_unit" json:"price_per_unit"`
	Unit         string    `db:"unit" json:"unit"`
	Source       string    `db:"source" json:"source"`
	ObservedAt   time.Time `db:"observed_at" json:"observed_at"`
}

// Rating is the buyer's one-per-order score of a completed purchase
type Rating struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	SellerID  int64     `db:"seller_id" json:"seller_id"`
	BuyerID   int64     `db:"buyer_id" json:"buyer_id"`
	Score     int       `db:"score" json:"score"`
	Comment   string    `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Fulfillment statuses
const (
	FulfillmentAwaitingPayment = "AWAITING_PAYMENT"
	FulfillmentInFulfillment   = "IN_FULFILLMENT"
	FulfillmentCompleted       = "COMPLETED"
	FulfillmentDisputed        = "DISPUTED"
)

// Payment statuses
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

// Fulfillment types
const (
	FulfillmentTypePickup   = "PICKUP"
	FulfillmentTypeDelivery = "DELIVERY"
)

// Caller roles
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// Price observation sources
const (
	ObservationSourceListing     = "listing"
	ObservationSourceTransaction = "transaction"
)

// Trust tiers, ordered lowest to highest
const (
	TierNew    = "NEW"
	TierBronze = "BRONZE"
	TierSilver = "SILVER"
	TierGold   = "GOLD"
)

// SellerSignals is the raw input set for a trust score recalculation.
// Always read fresh from the store, never patched incrementally.
type SellerSignals struct {
	Verified        bool    `db:"verified"`
	CompletedOrders int     `db:"completed_orders"`
	VolumeKES       int64   `db:"volume_kes"`
	RatingAverage   float64 `db:"rating_average"`
	RatingCount     int     `db:"rating_count"`
	OnTimeRate      float64 `db:"on_time_rate"`
	Disputes        int     `db:"disputes"`
	DisputesLost    int     `db:"disputes_lost"`
}

// ProcessedEvent for idempotent event consumption
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
