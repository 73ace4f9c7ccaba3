package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agrimarket/internal/models"
)

// CreateOrder creates a new order and assigns its human-readable reference
// from the generated id. The rollback path (DeleteOrder) exists only for
// failed payment initiation before the order is externally observable.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			reference, listing_id, seller_id, buyer_id, crop, county,
			quantity, unit, price_per_unit, total_amount, fulfillment_type,
			payment_status, fulfillment_status
		)
		VALUES ('', $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	if err := tx.GetContext(ctx, order, query,
		order.ListingID, order.SellerID, order.BuyerID, order.Crop, order.County,
		order.Quantity, order.Unit, order.PricePerUnit, order.TotalAmount,
		order.FulfillmentType, order.PaymentStatus, order.FulfillmentStatus); err != nil {
		return err
	}

	order.Reference = fmt.Sprintf("ORD-%06d", order.ID)
	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET reference = $1 WHERE id = $2", order.Reference, order.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteOrder removes a just-created order whose payment initiation failed
func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	return err
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByReference retrieves an order by its external reference
func (s *Store) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE reference = $1", reference)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByBuyerID retrieves orders for a buyer
func (s *Store) GetOrdersByBuyerID(ctx context.Context, buyerID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC", buyerID)
	return orders, err
}

// MarkInFulfillment applies the seller confirmation transition as a single
// conditional update. Returns false if the guard no longer holds.
func (s *Store) MarkInFulfillment(ctx context.Context, orderID int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_status = $1, confirmed_by_seller_at = $2, updated_at = NOW()
		WHERE id = $3 AND fulfillment_status = $4 AND payment_status = $5`,
		models.FulfillmentInFulfillment, now, orderID,
		models.FulfillmentAwaitingPayment, models.PaymentStatusPaid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkCompleted applies the buyer received transition as a single
// conditional update. Returns false if the guard no longer holds.
func (s *Store) MarkCompleted(ctx context.Context, orderID int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_status = $1, received_by_buyer_at = $2, updated_at = NOW()
		WHERE id = $3 AND fulfillment_status = $4`,
		models.FulfillmentCompleted, now, orderID, models.FulfillmentInFulfillment)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkPaymentPaid records a successful payment callback. Idempotent under
// at-least-once callback delivery: paid_at is only stamped once.
func (s *Store) MarkPaymentPaid(ctx context.Context, orderID int64, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, paid_at = COALESCE(paid_at, $2), updated_at = NOW()
		WHERE id = $3 AND payment_status IN ($4, $1)`,
		models.PaymentStatusPaid, now, orderID, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkPaymentFailed records a failed payment callback
func (s *Store) MarkPaymentFailed(ctx context.Context, orderID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = $3`,
		models.PaymentStatusFailed, orderID, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CreatePayment creates a new payment record
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, status, provider_tx_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, payment, query,
		payment.OrderID, payment.Status, payment.ProviderTxID, payment.Amount)
}

// GetPaymentByOrderID retrieves the latest payment for an order
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment not found for order: %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentStatus updates payment status
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status, providerTxID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payments SET status = $1, provider_tx_id = $2, updated_at = NOW() WHERE id = $3",
		status, providerTxID, paymentID)
	return err
}
