package store

import (
	"context"
	"database/sql"
	"errors"

	"agrimarket/internal/models"

	"github.com/lib/pq"
)

// ErrDuplicate indicates a unique constraint rejected the write
var ErrDuplicate = errors.New("store: duplicate row")

// CreateRating inserts a rating. The one-rating-per-order invariant is
// enforced by the unique index on order_id, which closes the race between
// two concurrent submissions; the constraint violation is surfaced as
// ErrDuplicate.
func (s *Store) CreateRating(ctx context.Context, rating *models.Rating) error {
	query := `
		INSERT INTO ratings (order_id, seller_id, buyer_id, score, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, rating, query,
		rating.OrderID, rating.SellerID, rating.BuyerID, rating.Score, rating.Comment)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetRatingByOrderID retrieves the rating for an order, if any
func (s *Store) GetRatingByOrderID(ctx context.Context, orderID int64) (*models.Rating, error) {
	var rating models.Rating
	err := s.db.GetContext(ctx, &rating, "SELECT * FROM ratings WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GetRatingSummary returns a seller's rating average and count
func (s *Store) GetRatingSummary(ctx context.Context, sellerID int64) (float64, int, error) {
	var row struct {
		Average sql.NullFloat64 `db:"average"`
		Count   int             `db:"count"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT AVG(score) AS average, COUNT(*) AS count
		FROM ratings WHERE seller_id = $1`, sellerID)
	if err != nil {
		return 0, 0, err
	}
	return row.Average.Float64, row.Count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
