package service

import "errors"

// Error taxonomy for the authoritative path. Side-effect failures are never
// surfaced through these; they are logged and absorbed by their step.
var (
	// ErrNotFound: the referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden: authenticated caller is not the order's counterparty
	// for the requested action
	ErrForbidden = errors.New("caller not permitted")

	// ErrInvalidTransition: the requested status is not reachable from the
	// order's current fulfillment status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrOrderNotPaid: fulfillment cannot advance before payment is PAID
	ErrOrderNotPaid = errors.New("order not paid")

	// ErrDuplicateRating: a rating already exists for the order
	ErrDuplicateRating = errors.New("order already rated")

	// ErrInvalidState: the operation requires a COMPLETED order
	ErrInvalidState = errors.New("order not in required state")

	// ErrInvalidInput: request payload failed validation
	ErrInvalidInput = errors.New("invalid input")
)

// AuthContext is the explicit caller identity passed to every entry point.
// There is no ambient session; handlers build this from the authenticated
// request and services trust it.
type AuthContext struct {
	UserID int64
	Role   string
}
