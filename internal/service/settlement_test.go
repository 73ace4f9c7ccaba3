package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agrimarket/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettlementStore struct {
	processed    map[string]bool
	observations []models.PriceObservation
	appendErr    error
}

func newFakeSettlementStore() *fakeSettlementStore {
	return &fakeSettlementStore{processed: map[string]bool{}}
}

func (f *fakeSettlementStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	return f.processed[eventID], nil
}

func (f *fakeSettlementStore) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	f.processed[eventID] = true
	return nil
}

func (f *fakeSettlementStore) AppendPriceObservation(_ context.Context, obs *models.PriceObservation) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.observations = append(f.observations, *obs)
	return nil
}

type fakeRecalculator struct {
	calls []int64
	err   error
}

func (f *fakeRecalculator) Recalculate(_ context.Context, sellerID int64) (*models.TrustScore, error) {
	f.calls = append(f.calls, sellerID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.TrustScore{SellerID: sellerID}, nil
}

type fakeEvaluator struct {
	calls int
	err   error
}

func (f *fakeEvaluator) EvaluateObservation(_ context.Context, _, _ string, _ int64, _ string, _ time.Time) (int, error) {
	f.calls++
	return 0, f.err
}

func completedEvent(eventID string) *models.OrderCompletedEvent {
	return &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:      7,
		SellerID:     10,
		BuyerID:      20,
		Crop:         "maize",
		County:       "Kiambu",
		PricePerUnit: 45,
		Unit:         "kg",
		CompletedAt:  time.Now(),
	}
}

func TestHandleOrderCompletedRunsAllSteps(t *testing.T) {
	st := newFakeSettlementStore()
	scores := &fakeRecalculator{}
	alerts := &fakeEvaluator{}
	so := NewSettlementOrchestrator(st, scores, alerts)

	err := so.HandleOrderCompleted(context.Background(), completedEvent("evt-1"))
	require.NoError(t, err)

	require.Len(t, st.observations, 1)
	obs := st.observations[0]
	assert.Equal(t, "maize", obs.Crop)
	assert.Equal(t, "Kiambu", obs.County)
	assert.Equal(t, int64(45), obs.PricePerUnit)
	assert.Equal(t, models.ObservationSourceTransaction, obs.Source)

	assert.Equal(t, []int64{10}, scores.calls)
	assert.Equal(t, 1, alerts.calls)
	assert.True(t, st.processed["evt-1"])
}

func TestHandleOrderCompletedScoreFailureDoesNotBlockLaterSteps(t *testing.T) {
	st := newFakeSettlementStore()
	scores := &fakeRecalculator{err: errors.New("store unavailable")}
	alerts := &fakeEvaluator{}
	so := NewSettlementOrchestrator(st, scores, alerts)

	err := so.HandleOrderCompleted(context.Background(), completedEvent("evt-2"))

	require.NoError(t, err, "side-effect failures never surface to the trigger")
	assert.Len(t, st.observations, 1, "observation from step 1 survives the step 2 failure")
	assert.Equal(t, 1, alerts.calls, "alert evaluation still runs")
}

func TestHandleOrderCompletedObservationFailureIsIsolated(t *testing.T) {
	st := newFakeSettlementStore()
	st.appendErr = errors.New("disk full")
	scores := &fakeRecalculator{}
	alerts := &fakeEvaluator{}
	so := NewSettlementOrchestrator(st, scores, alerts)

	err := so.HandleOrderCompleted(context.Background(), completedEvent("evt-3"))

	require.NoError(t, err)
	assert.Equal(t, []int64{10}, scores.calls)
	assert.Equal(t, 1, alerts.calls)
}

func TestHandleOrderCompletedDeduplicatesRedelivery(t *testing.T) {
	st := newFakeSettlementStore()
	scores := &fakeRecalculator{}
	alerts := &fakeEvaluator{}
	so := NewSettlementOrchestrator(st, scores, alerts)

	event := completedEvent("evt-4")
	require.NoError(t, so.HandleOrderCompleted(context.Background(), event))
	require.NoError(t, so.HandleOrderCompleted(context.Background(), event))

	assert.Len(t, st.observations, 1, "redelivered event must not settle twice")
	assert.Equal(t, []int64{10}, scores.calls)
	assert.Equal(t, 1, alerts.calls)
}

func TestHandleRatingCreatedTriggersRecalculation(t *testing.T) {
	st := newFakeSettlementStore()
	scores := &fakeRecalculator{}
	so := NewSettlementOrchestrator(st, scores, &fakeEvaluator{})

	event := &models.RatingCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-5",
			EventType: models.EventTypeRatingCreated,
		},
		RatingID: 1,
		OrderID:  7,
		SellerID: 10,
		Score:    4,
	}
	require.NoError(t, so.HandleRatingCreated(context.Background(), event))

	assert.Equal(t, []int64{10}, scores.calls)
	assert.True(t, st.processed["evt-5"])
}
