package service

import (
	"testing"

	"agrimarket/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAggregateScoreDeterministic(t *testing.T) {
	sig := &models.SellerSignals{
		Verified:        true,
		CompletedOrders: 12,
		VolumeKES:       250000,
		RatingAverage:   4.5,
		RatingCount:     8,
		OnTimeRate:      0.9,
		Disputes:        1,
		DisputesLost:    0,
	}

	first := AggregateScore(sig)
	second := AggregateScore(sig)

	assert.Equal(t, first, second, "same signals must yield an identical record")
	assert.Equal(t, first.CompositeScore, second.CompositeScore)
	assert.Equal(t, first.Tier, second.Tier)
}

func TestAggregateScoreNewSeller(t *testing.T) {
	score := AggregateScore(&models.SellerSignals{})

	assert.Equal(t, 0.0, score.VerificationScore)
	assert.Equal(t, 0.0, score.TransactionScore)
	assert.Equal(t, 0.0, score.RatingScore)
	assert.Equal(t, 0.0, score.ReliabilityScore)
	assert.Equal(t, 0.0, score.CompositeScore)
	assert.Equal(t, models.TierNew, score.Tier)
}

func TestAggregateScoreEstablishedSeller(t *testing.T) {
	sig := &models.SellerSignals{
		Verified:        true,
		CompletedOrders: 50,
		VolumeKES:       1000000,
		RatingAverage:   5,
		RatingCount:     40,
		OnTimeRate:      1.0,
		Disputes:        0,
		DisputesLost:    0,
	}

	score := AggregateScore(sig)

	assert.Equal(t, 100.0, score.VerificationScore)
	assert.Equal(t, 100.0, score.TransactionScore, "count and volume parts are capped")
	assert.Equal(t, 100.0, score.ReliabilityScore)
	assert.InDelta(t, 93.02, score.RatingScore, 0.01, "5.0 average damped by confidence 40/43")
	assert.Equal(t, models.TierGold, score.Tier)
}

func TestTierThresholds(t *testing.T) {
	cases := []struct {
		composite float64
		tier      string
	}{
		{0, models.TierNew},
		{39.99, models.TierNew},
		{40, models.TierBronze},
		{59.99, models.TierBronze},
		{60, models.TierSilver},
		{79.99, models.TierSilver},
		{80, models.TierGold},
		{100, models.TierGold},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.tier, tierFor(tc.composite), "composite %.2f", tc.composite)
	}
}

func TestRatingScoreConfidenceDamping(t *testing.T) {
	one := ratingScore(5, 1)
	many := ratingScore(5, 100)

	assert.Less(t, one, many, "a single 5-star rating must not outrank a long history")
	assert.InDelta(t, 25.0, one, 0.01)
	assert.Greater(t, many, 97.0)
}

func TestRatingScoreNoRatings(t *testing.T) {
	assert.Equal(t, 0.0, ratingScore(0, 0))
}

func TestReliabilityScorePenaltyFloor(t *testing.T) {
	assert.Equal(t, 0.0, reliabilityScore(0.2, 5, 3), "penalty never drives the score negative")
	assert.Equal(t, 100.0, reliabilityScore(1.0, 0, 0))
	assert.Equal(t, 65.0, reliabilityScore(0.9, 1, 1), "lost dispute costs more than an open one")
}

func TestTransactionScoreCaps(t *testing.T) {
	assert.Equal(t, 3.0, transactionScore(1, 0))
	assert.Equal(t, 60.0, transactionScore(1000, 0), "count part capped at 60")
	assert.Equal(t, 40.0, transactionScore(0, 100000000), "volume part capped at 40")
}

func TestScoreWeightsSumToOne(t *testing.T) {
	sum := weightVerification + weightTransaction + weightRating + weightReliability
	assert.InDelta(t, 1.0, sum, 1e-9)
}
