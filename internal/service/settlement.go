package service

import (
	"context"
	"fmt"
	"time"

	"agrimarket/internal/models"
	"agrimarket/internal/util"

	"go.uber.org/zap"
)

// Collaborator surfaces the orchestrator needs, kept narrow so each step
// can be exercised and failed independently.
type settlementStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	AppendPriceObservation(ctx context.Context, obs *models.PriceObservation) error
}

type scoreRecalculator interface {
	Recalculate(ctx context.Context, sellerID int64) (*models.TrustScore, error)
}

type alertEvaluator interface {
	EvaluateObservation(ctx context.Context, crop, county string, price int64, unit string, now time.Time) (int, error)
}

// SettlementOrchestrator runs the post-completion side effects: price
// observation, score recalculation, alert evaluation, notification. It is
// a best-effort saga, not a transaction — each step is independently
// error-isolated, no step's failure blocks a later step, and nothing is
// compensated. It consumes OrderCompleted events at-least-once, deduped
// through the processed_events table.
type SettlementOrchestrator struct {
	store  settlementStore
	scores scoreRecalculator
	alerts alertEvaluator
	logger *zap.Logger
}

// NewSettlementOrchestrator creates a new settlement orchestrator
func NewSettlementOrchestrator(store settlementStore, scores scoreRecalculator, alerts alertEvaluator) *SettlementOrchestrator {
	return &SettlementOrchestrator{
		store:  store,
		scores: scores,
		alerts: alerts,
		logger: util.GetLogger(),
	}
}

// HandleOrderCompleted runs the settlement steps for one completion event
func (so *SettlementOrchestrator) HandleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "SettlementOrchestrator.HandleOrderCompleted")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	so.logger.Info("Settling completed order",
		zap.Int64("order_id", event.OrderID),
		zap.Int64("seller_id", event.SellerID))

	// Step 1: record the transaction price point.
	obs := &models.PriceObservation{
		Crop:         event.Crop,
		County:       event.County,
		PricePerUnit: event.PricePerUnit,
		Unit:         event.Unit,
		Source:       models.ObservationSourceTransaction,
		ObservedAt:   event.CompletedAt,
	}
	if err := so.store.AppendPriceObservation(ctx, obs); err != nil {
		util.SettlementStepFailedTotal.WithLabelValues("observation").Inc()
		so.logger.Error("Failed to append price observation",
			zap.Int64("order_id", event.OrderID),
			zap.Error(err))
	} else {
		util.PriceObservationsTotal.WithLabelValues(models.ObservationSourceTransaction).Inc()
	}

	// Step 2: recompute the seller's trust score.
	if _, err := so.scores.Recalculate(ctx, event.SellerID); err != nil {
		util.SettlementStepFailedTotal.WithLabelValues("score").Inc()
		so.logger.Error("Failed to recalculate trust score",
			zap.Int64("order_id", event.OrderID),
			zap.Int64("seller_id", event.SellerID),
			zap.Error(err))
	}

	// Steps 3-4: evaluate matching alerts and dispatch notifications.
	if _, err := so.alerts.EvaluateObservation(ctx, event.Crop, event.County,
		event.PricePerUnit, event.Unit, event.CompletedAt); err != nil {
		util.SettlementStepFailedTotal.WithLabelValues("alerts").Inc()
		so.logger.Error("Failed to evaluate price alerts",
			zap.Int64("order_id", event.OrderID),
			zap.Error(err))
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}

	so.logger.Info("Order settled", zap.Int64("order_id", event.OrderID))
	return nil
}

// HandleRatingCreated recomputes the seller's score after a new rating
func (so *SettlementOrchestrator) HandleRatingCreated(ctx context.Context, event *models.RatingCreatedEvent) error {
	ctx, span := util.StartSpan(ctx, "SettlementOrchestrator.HandleRatingCreated")
	defer span.End()

	processed, err := so.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		so.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if _, err := so.scores.Recalculate(ctx, event.SellerID); err != nil {
		util.SettlementStepFailedTotal.WithLabelValues("score").Inc()
		so.logger.Error("Failed to recalculate trust score after rating",
			zap.Int64("seller_id", event.SellerID),
			zap.Error(err))
	}

	if err := so.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		so.logger.Error("Failed to mark event processed",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	}
	return nil
}
