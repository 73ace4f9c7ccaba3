package store

import (
	"context"
	"database/sql"

	"agrimarket/internal/models"
)

// GetSellerSignals reads the full raw signal set for a trust score
// recalculation in one round trip. Recalculation is always computed from
// this fresh snapshot, never from a delta.
func (s *Store) GetSellerSignals(ctx context.Context, sellerID int64) (*models.SellerSignals, error) {
	var sig models.SellerSignals
	err := s.db.GetContext(ctx, &sig, `
		SELECT
			sl.verified,
			COALESCE(tx.completed_orders, 0)  AS completed_orders,
			COALESCE(tx.volume_kes, 0)        AS volume_kes,
			COALESCE(rt.rating_average, 0)    AS rating_average,
			COALESCE(rt.rating_count, 0)      AS rating_count,
			COALESCE(tx.on_time_rate, 0)      AS on_time_rate,
			COALESCE(dp.disputes, 0)          AS disputes,
			COALESCE(dp.disputes_lost, 0)     AS disputes_lost
		FROM sellers sl
		LEFT JOIN (
			SELECT seller_id,
			       COUNT(*)                                        AS completed_orders,
			       COALESCE(SUM(total_amount), 0)                  AS volume_kes,
			       AVG(CASE WHEN confirmed_by_seller_at IS NOT NULL
			                 AND confirmed_by_seller_at <= paid_at + INTERVAL '48 hours'
			                THEN 1.0 ELSE 0.0 END)                 AS on_time_rate
			FROM orders
			WHERE fulfillment_status = 'COMPLETED'
			GROUP BY seller_id
		) tx ON tx.seller_id = sl.id
		LEFT JOIN (
			SELECT seller_id, AVG(score) AS rating_average, COUNT(*) AS rating_count
			FROM ratings GROUP BY seller_id
		) rt ON rt.seller_id = sl.id
		LEFT JOIN (
			SELECT seller_id,
			       COUNT(*) AS disputes,
			       COUNT(*) FILTER (WHERE resolution = 'SELLER_AT_FAULT') AS disputes_lost
			FROM disputes GROUP BY seller_id
		) dp ON dp.seller_id = sl.id
		WHERE sl.id = $1`, sellerID)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &sig, nil
}

// UpsertTrustScore persists the full score record, replacing any prior row
// for the seller
func (s *Store) UpsertTrustScore(ctx context.Context, score *models.TrustScore) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trust_scores (
			seller_id, verification_score, transaction_score, rating_score,
			reliability_score, composite_score, tier, calculated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (seller_id) DO UPDATE SET
			verification_score = EXCLUDED.verification_score,
			transaction_score  = EXCLUDED.transaction_score,
			rating_score       = EXCLUDED.rating_score,
			reliability_score  = EXCLUDED.reliability_score,
			composite_score    = EXCLUDED.composite_score,
			tier               = EXCLUDED.tier,
			calculated_at      = EXCLUDED.calculated_at`,
		score.SellerID, score.VerificationScore, score.TransactionScore,
		score.RatingScore, score.ReliabilityScore, score.CompositeScore,
		score.Tier, score.CalculatedAt)
	return err
}

// GetTrustScore retrieves a seller's persisted trust score
func (s *Store) GetTrustScore(ctx context.Context, sellerID int64) (*models.TrustScore, error) {
	var score models.TrustScore
	err := s.db.GetContext(ctx, &score, "SELECT * FROM trust_scores WHERE seller_id = $1", sellerID)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}
