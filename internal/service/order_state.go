package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrimarket/internal/broker"
	"agrimarket/internal/models"
	"agrimarket/internal/store"
	"agrimarket/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService owns order creation and the fulfillment state machine
type OrderService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, eventPublisher *broker.EventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// PlanTransition is the pure transition table: for every (caller, requested
// status, current order) tuple it either approves the transition or returns
// exactly one rejection error. Authorization is checked before state so a
// wrong caller never learns the order's state.
func PlanTransition(order *models.Order, target string, caller AuthContext) error {
	switch target {
	case models.FulfillmentInFulfillment:
		if caller.Role != models.RoleSeller || caller.UserID != order.SellerID {
			return ErrForbidden
		}
		if order.FulfillmentStatus != models.FulfillmentAwaitingPayment {
			return ErrInvalidTransition
		}
		if order.PaymentStatus != models.PaymentStatusPaid {
			return ErrOrderNotPaid
		}
		return nil

	case models.FulfillmentCompleted:
		if caller.Role != models.RoleBuyer || caller.UserID != order.BuyerID {
			return ErrForbidden
		}
		if order.FulfillmentStatus != models.FulfillmentInFulfillment {
			return ErrInvalidTransition
		}
		return nil

	default:
		return ErrInvalidTransition
	}
}

// Transition validates and applies a fulfillment status change. The write
// is a conditional update re-checking the guard, so a concurrent transition
// cannot be applied twice. On the terminal COMPLETED transition the
// settlement event is published fire-and-forget: a publish failure is
// logged and never fails the caller's request.
func (s *OrderService) Transition(ctx context.Context, caller AuthContext, orderID int64, target string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Transition")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := PlanTransition(order, target, caller); err != nil {
		util.TransitionsRejectedTotal.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	now := time.Now().UTC()
	var applied bool
	switch target {
	case models.FulfillmentInFulfillment:
		applied, err = s.store.MarkInFulfillment(ctx, orderID, now)
	case models.FulfillmentCompleted:
		applied, err = s.store.MarkCompleted(ctx, orderID, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}
	if !applied {
		// Guard re-check lost a race with a concurrent transition.
		util.TransitionsRejectedTotal.WithLabelValues("state_conflict").Inc()
		return nil, ErrInvalidTransition
	}

	order, err = s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.logger.Info("Order transitioned",
		zap.Int64("order_id", orderID),
		zap.String("status", order.FulfillmentStatus))

	if target == models.FulfillmentCompleted {
		util.OrdersCompletedTotal.Inc()
		s.publishCompleted(ctx, order, now)
	}

	return order, nil
}

// publishCompleted hands the completed order to the settlement pipeline.
// Best-effort: on failure the score stays stale until the next trigger and
// alert coverage falls to the next sweep.
func (s *OrderService) publishCompleted(ctx context.Context, order *models.Order, completedAt time.Time) {
	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:      order.ID,
		SellerID:     order.SellerID,
		BuyerID:      order.BuyerID,
		Crop:         order.Crop,
		County:       order.County,
		PricePerUnit: order.PricePerUnit,
		Unit:         order.Unit,
		CompletedAt:  completedAt,
	}

	if err := s.eventPublisher.PublishOrderCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCompleted event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrOrderNotPaid):
		return "not_paid"
	default:
		return "state_conflict"
	}
}

// CreateOrderRequest represents a buyer's purchase request
type CreateOrderRequest struct {
	ListingID       int64   `json:"listing_id" binding:"required"`
	Quantity        float64 `json:"quantity" binding:"required,gt=0"`
	FulfillmentType string  `json:"fulfillment_type" binding:"required,oneof=PICKUP DELIVERY"`
}

// CreateOrder creates an order in AWAITING_PAYMENT and initiates its
// payment record. If payment initiation fails the just-created order is
// rolled back before it is externally observable.
func (s *OrderService) CreateOrder(ctx context.Context, caller AuthContext, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if caller.Role != models.RoleBuyer {
		return nil, ErrForbidden
	}

	listing, err := s.store.GetListingByID(ctx, req.ListingID)
	if errors.Is(err, store.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}

	// Total is fixed at creation time and immutable thereafter.
	total := int64(req.Quantity * float64(listing.PricePerUnit))

	order := &models.Order{
		ListingID:         listing.ID,
		SellerID:          listing.SellerID,
		BuyerID:           caller.UserID,
		Crop:              listing.Crop,
		County:            listing.County,
		Quantity:          req.Quantity,
		Unit:              listing.Unit,
		PricePerUnit:      listing.PricePerUnit,
		TotalAmount:       total,
		FulfillmentType:   req.FulfillmentType,
		PaymentStatus:     models.PaymentStatusPending,
		FulfillmentStatus: models.FulfillmentAwaitingPayment,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	payment := &models.Payment{
		OrderID: order.ID,
		Status:  models.PaymentStatusPending,
		Amount:  total,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		if delErr := s.store.DeleteOrder(ctx, order.ID); delErr != nil {
			s.logger.Error("Failed to roll back order after payment initiation failure",
				zap.Int64("order_id", order.ID),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to initiate payment: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("reference", order.Reference))

	return order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNoRows) {
		return nil, ErrNotFound
	}
	return order, err
}

// PaymentCallbackRequest is the minimal payload accepted from the gateway
type PaymentCallbackRequest struct {
	OrderReference string `json:"order_reference" binding:"required"`
	Status         string `json:"status" binding:"required,oneof=PAID FAILED"`
	ProviderTxID   string `json:"tx_id"`
}

// HandlePaymentCallback marks the order's payment from the gateway
// callback. Tolerates at-least-once delivery: a repeated PAID callback is
// a no-op.
func (s *OrderService) HandlePaymentCallback(ctx context.Context, req *PaymentCallbackRequest) error {
	ctx, span := util.StartSpan(ctx, "OrderService.HandlePaymentCallback")
	defer span.End()

	order, err := s.store.GetOrderByReference(ctx, req.OrderReference)
	if errors.Is(err, store.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	now := time.Now().UTC()
	var applied bool
	var paymentStatus string
	switch req.Status {
	case models.PaymentStatusPaid:
		applied, err = s.store.MarkPaymentPaid(ctx, order.ID, now)
		paymentStatus = models.PaymentStatusPaid
	case models.PaymentStatusFailed:
		applied, err = s.store.MarkPaymentFailed(ctx, order.ID)
		paymentStatus = models.PaymentStatusFailed
	default:
		return ErrInvalidInput
	}
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if !applied {
		return ErrInvalidState
	}

	if payment, err := s.store.GetPaymentByOrderID(ctx, order.ID); err == nil {
		if err := s.store.UpdatePaymentStatus(ctx, payment.ID, paymentStatus, req.ProviderTxID); err != nil {
			s.logger.Error("Failed to update payment record",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Payment callback processed",
		zap.String("reference", req.OrderReference),
		zap.String("status", req.Status))
	return nil
}
