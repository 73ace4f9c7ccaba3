package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agrimarket/internal/models"
)

// CreatePriceAlert creates a new price alert
func (s *Store) CreatePriceAlert(ctx context.Context, alert *models.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (seller_id, crop, county, target_price, unit, notify_method, recipient, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, alert, query,
		alert.SellerID, alert.Crop, alert.County, alert.TargetPrice,
		alert.Unit, alert.NotifyMethod, alert.Recipient, alert.Active)
}

// GetPriceAlertByID retrieves an alert by ID
func (s *Store) GetPriceAlertByID(ctx context.Context, id int64) (*models.PriceAlert, error) {
	var alert models.PriceAlert
	err := s.db.GetContext(ctx, &alert, "SELECT * FROM price_alerts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// GetPriceAlertsBySellerID retrieves a seller's alerts
func (s *Store) GetPriceAlertsBySellerID(ctx context.Context, sellerID int64) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	err := s.db.SelectContext(ctx, &alerts,
		"SELECT * FROM price_alerts WHERE seller_id = $1 ORDER BY created_at DESC", sellerID)
	return alerts, err
}

// DeactivatePriceAlert deactivates an alert owned by the given seller
func (s *Store) DeactivatePriceAlert(ctx context.Context, alertID, sellerID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE price_alerts SET active = FALSE WHERE id = $1 AND seller_id = $2",
		alertID, sellerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetMatchingAlerts returns active alerts for a crop/county whose target is
// at or below the observed price and whose cooldown has elapsed. The
// cooldown is part of the SQL predicate so stale rows are filtered at the
// store, not only in application code.
func (s *Store) GetMatchingAlerts(ctx context.Context, crop, county string, price int64, cooldown time.Duration, now time.Time) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	err := s.db.SelectContext(ctx, &alerts, `
		SELECT * FROM price_alerts
		WHERE active = TRUE
		  AND crop = $1 AND county = $2
		  AND target_price <= $3
		  AND (last_triggered_at IS NULL OR last_triggered_at <= $4)
		ORDER BY id`,
		crop, county, price, now.Add(-cooldown))
	return alerts, err
}

// GetActiveAlertsBatch returns a bounded batch of active alerts for the sweep
func (s *Store) GetActiveAlertsBatch(ctx context.Context, limit int) ([]models.PriceAlert, error) {
	var alerts []models.PriceAlert
	err := s.db.SelectContext(ctx, &alerts,
		"SELECT * FROM price_alerts WHERE active = TRUE ORDER BY id LIMIT $1", limit)
	return alerts, err
}

// MarkAlertTriggered advances last_triggered_at, conditioned on the cooldown
// still holding at write time. Exactly one of two concurrent firers can win.
// Returns false when the condition no longer holds (the alert was triggered
// by the other path, or deactivated meanwhile).
func (s *Store) MarkAlertTriggered(ctx context.Context, alertID int64, now time.Time, cooldown time.Duration) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE price_alerts
		SET last_triggered_at = $1
		WHERE id = $2
		  AND active = TRUE
		  AND (last_triggered_at IS NULL OR last_triggered_at <= $3)`,
		now, alertID, now.Add(-cooldown))
	if err != nil {
		return false, fmt.Errorf("failed to mark alert triggered: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AppendPriceObservation appends an immutable price point
func (s *Store) AppendPriceObservation(ctx context.Context, obs *models.PriceObservation) error {
	query := `
		INSERT INTO price_observations (crop, county, price_per_unit, unit, source, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return s.db.GetContext(ctx, &obs.ID, query,
		obs.Crop, obs.County, obs.PricePerUnit, obs.Unit, obs.Source, obs.ObservedAt)
}

// GetRecentObservations retrieves recent observations for a crop/county
func (s *Store) GetRecentObservations(ctx context.Context, crop, county string, limit int) ([]models.PriceObservation, error) {
	var obs []models.PriceObservation
	err := s.db.SelectContext(ctx, &obs, `
		SELECT * FROM price_observations
		WHERE crop = $1 AND county = $2
		ORDER BY observed_at DESC LIMIT $3`,
		crop, county, limit)
	return obs, err
}

// TrailingAveragePrice computes the average observed price for a crop/county
// over a trailing window. Returns ok=false when there are no observations.
func (s *Store) TrailingAveragePrice(ctx context.Context, crop, county string, window time.Duration, now time.Time) (int64, bool, error) {
	var avg sql.NullFloat64
	err := s.db.GetContext(ctx, &avg, `
		SELECT AVG(price_per_unit) FROM price_observations
		WHERE crop = $1 AND county = $2 AND observed_at >= $3`,
		crop, county, now.Add(-window))
	if err != nil {
		return 0, false, err
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return int64(avg.Float64), true, nil
}
