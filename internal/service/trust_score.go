package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrimarket/internal/models"
	"agrimarket/internal/redisclient"
	"agrimarket/internal/store"
	"agrimarket/internal/util"

	"go.uber.org/zap"
)

// TrustScoreEngine recomputes and persists seller trust scores.
// It is the single endpoint for both recalculation triggers (order
// completion and new rating), and safe under concurrent invocation for the
// same seller because every run recomputes from a fresh signal snapshot.
type TrustScoreEngine struct {
	store    *store.Store
	redis    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewTrustScoreEngine creates a new trust score engine
func NewTrustScoreEngine(store *store.Store, redis *redisclient.Client, cacheTTL time.Duration) *TrustScoreEngine {
	return &TrustScoreEngine{
		store:    store,
		redis:    redis,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// Recalculate reads the seller's full signal set, aggregates it, and
// replaces the persisted score record. Idempotent: unchanged signals yield
// an identical record.
func (e *TrustScoreEngine) Recalculate(ctx context.Context, sellerID int64) (*models.TrustScore, error) {
	ctx, span := util.StartSpan(ctx, "TrustScoreEngine.Recalculate")
	defer span.End()

	util.ScoreRecalcTotal.Inc()

	signals, err := e.store.GetSellerSignals(ctx, sellerID)
	if err != nil {
		util.ScoreRecalcFailedTotal.Inc()
		return nil, fmt.Errorf("failed to read seller signals: %w", err)
	}

	score := AggregateScore(signals)
	score.SellerID = sellerID
	score.CalculatedAt = time.Now().UTC()

	if err := e.store.UpsertTrustScore(ctx, &score); err != nil {
		util.ScoreRecalcFailedTotal.Inc()
		return nil, fmt.Errorf("failed to persist trust score: %w", err)
	}

	if e.redis != nil {
		if err := e.redis.CacheTrustScore(ctx, &score, e.cacheTTL); err != nil {
			e.logger.Warn("Failed to cache trust score",
				zap.Int64("seller_id", sellerID),
				zap.Error(err))
		}
	}

	e.logger.Info("Trust score recalculated",
		zap.Int64("seller_id", sellerID),
		zap.Float64("composite", score.CompositeScore),
		zap.String("tier", score.Tier))

	return &score, nil
}

// GetScore serves the read surface: cache first, store on miss.
func (e *TrustScoreEngine) GetScore(ctx context.Context, sellerID int64) (*models.TrustScore, error) {
	if e.redis != nil {
		cached, err := e.redis.GetCachedTrustScore(ctx, sellerID)
		if err != nil {
			e.logger.Warn("Trust score cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	score, err := e.store.GetTrustScore(ctx, sellerID)
	if errors.Is(err, store.ErrNoRows) {
		return nil, ErrNotFound
	}
	return score, err
}
