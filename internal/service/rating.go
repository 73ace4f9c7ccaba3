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

// RatingService enforces the one-rating-per-order gate
type RatingService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(store *store.Store, eventPublisher *broker.EventPublisher) *RatingService {
	return &RatingService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SubmitRatingRequest is the buyer's rating payload
type SubmitRatingRequest struct {
	Score   int    `json:"score" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// SubmitRatingResponse returns the created rating and the seller's
// refreshed average
type SubmitRatingResponse struct {
	RatingID      int64   `json:"rating_id"`
	RatingAverage float64 `json:"rating_average"`
	RatingCount   int     `json:"rating_count"`
}

// SubmitRating validates the gate and persists the rating. The duplicate
// check is the unique constraint on order_id, not an application read, so
// two concurrent submissions cannot both land. The score recalculation is
// triggered fire-and-forget through the event topic.
func (rs *RatingService) SubmitRating(ctx context.Context, caller AuthContext, orderID int64, req *SubmitRatingRequest) (*SubmitRatingResponse, error) {
	ctx, span := util.StartSpan(ctx, "RatingService.SubmitRating")
	defer span.End()

	order, err := rs.store.GetOrderByID(ctx, orderID)
	if errors.Is(err, store.ErrNoRows) {
		util.RatingsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if caller.Role != models.RoleBuyer || caller.UserID != order.BuyerID {
		util.RatingsRejectedTotal.WithLabelValues("forbidden").Inc()
		return nil, ErrForbidden
	}

	if order.FulfillmentStatus != models.FulfillmentCompleted {
		util.RatingsRejectedTotal.WithLabelValues("invalid_state").Inc()
		return nil, ErrInvalidState
	}

	rating := &models.Rating{
		OrderID:  orderID,
		SellerID: order.SellerID,
		BuyerID:  caller.UserID,
		Score:    req.Score,
		Comment:  req.Comment,
	}
	if err := rs.store.CreateRating(ctx, rating); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			util.RatingsRejectedTotal.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicateRating
		}
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	util.RatingsCreatedTotal.Inc()
	rs.logger.Info("Rating created",
		zap.Int64("order_id", orderID),
		zap.Int64("rating_id", rating.ID),
		zap.Int("score", rating.Score))

	event := &models.RatingCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeRatingCreated,
			Timestamp: time.Now(),
		},
		RatingID: rating.ID,
		OrderID:  orderID,
		SellerID: order.SellerID,
		Score:    rating.Score,
	}
	if err := rs.eventPublisher.PublishRatingCreated(ctx, event); err != nil {
		rs.logger.Error("Failed to publish RatingCreated event",
			zap.Int64("rating_id", rating.ID),
			zap.Error(err))
	}

	average, count, err := rs.store.GetRatingSummary(ctx, order.SellerID)
	if err != nil {
		rs.logger.Warn("Failed to read rating summary", zap.Error(err))
	}

	return &SubmitRatingResponse{
		RatingID:      rating.ID,
		RatingAverage: average,
		RatingCount:   count,
	}, nil
}
