package service

import (
	"testing"

	"agrimarket/internal/models"

	"github.com/stretchr/testify/assert"
)

const (
	testSellerID = int64(10)
	testBuyerID  = int64(20)
)

func orderWith(fulfillment, payment string) *models.Order {
	return &models.Order{
		ID:                1,
		SellerID:          testSellerID,
		BuyerID:           testBuyerID,
		FulfillmentStatus: fulfillment,
		PaymentStatus:     payment,
	}
}

func TestPlanTransitionSellerConfirms(t *testing.T) {
	seller := AuthContext{UserID: testSellerID, Role: models.RoleSeller}

	err := PlanTransition(orderWith(models.FulfillmentAwaitingPayment, models.PaymentStatusPaid),
		models.FulfillmentInFulfillment, seller)
	assert.NoError(t, err)

	err = PlanTransition(orderWith(models.FulfillmentAwaitingPayment, models.PaymentStatusPending),
		models.FulfillmentInFulfillment, seller)
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	// Repeating the confirmation is a state conflict, not success.
	err = PlanTransition(orderWith(models.FulfillmentInFulfillment, models.PaymentStatusPaid),
		models.FulfillmentInFulfillment, seller)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransitionBuyerReceives(t *testing.T) {
	buyer := AuthContext{UserID: testBuyerID, Role: models.RoleBuyer}

	err := PlanTransition(orderWith(models.FulfillmentInFulfillment, models.PaymentStatusPaid),
		models.FulfillmentCompleted, buyer)
	assert.NoError(t, err)

	err = PlanTransition(orderWith(models.FulfillmentAwaitingPayment, models.PaymentStatusPaid),
		models.FulfillmentCompleted, buyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = PlanTransition(orderWith(models.FulfillmentCompleted, models.PaymentStatusPaid),
		models.FulfillmentCompleted, buyer)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransitionWrongCaller(t *testing.T) {
	order := orderWith(models.FulfillmentAwaitingPayment, models.PaymentStatusPaid)

	// Right role, wrong identity.
	err := PlanTransition(order, models.FulfillmentInFulfillment,
		AuthContext{UserID: 999, Role: models.RoleSeller})
	assert.ErrorIs(t, err, ErrForbidden)

	// The buyer cannot confirm fulfillment.
	err = PlanTransition(order, models.FulfillmentInFulfillment,
		AuthContext{UserID: testBuyerID, Role: models.RoleBuyer})
	assert.ErrorIs(t, err, ErrForbidden)

	// The seller cannot mark received.
	err = PlanTransition(orderWith(models.FulfillmentInFulfillment, models.PaymentStatusPaid),
		models.FulfillmentCompleted,
		AuthContext{UserID: testSellerID, Role: models.RoleSeller})
	assert.ErrorIs(t, err, ErrForbidden)
}

// Every (role, requested status, current status, payment status) tuple must
// map to exactly one outcome: approval or a single taxonomy error.
func TestPlanTransitionTotality(t *testing.T) {
	callers := []AuthContext{
		{UserID: testSellerID, Role: models.RoleSeller},
		{UserID: testBuyerID, Role: models.RoleBuyer},
		{UserID: 999, Role: models.RoleSeller},
		{UserID: 999, Role: models.RoleBuyer},
		{UserID: testSellerID, Role: "admin"},
	}
	targets := []string{
		models.FulfillmentInFulfillment,
		models.FulfillmentCompleted,
		models.FulfillmentAwaitingPayment,
		models.FulfillmentDisputed,
		"NONSENSE",
	}
	fulfillments := []string{
		models.FulfillmentAwaitingPayment,
		models.FulfillmentInFulfillment,
		models.FulfillmentCompleted,
		models.FulfillmentDisputed,
	}
	payments := []string{
		models.PaymentStatusPending,
		models.PaymentStatusPaid,
		models.PaymentStatusFailed,
		models.PaymentStatusRefunded,
	}

	for _, caller := range callers {
		for _, target := range targets {
			for _, fulfillment := range fulfillments {
				for _, payment := range payments {
					err := PlanTransition(orderWith(fulfillment, payment), target, caller)
					if err == nil {
						continue
					}
					assert.Contains(t,
						[]error{ErrForbidden, ErrInvalidTransition, ErrOrderNotPaid}, err,
						"caller=%+v target=%s fulfillment=%s payment=%s",
						caller, target, fulfillment, payment)
				}
			}
		}
	}
}
