package service

import (
	"math"

	"agrimarket/internal/models"
)

// Sub-score weights. They must sum to 1.
const (
	weightVerification = 0.20
	weightTransaction  = 0.25
	weightRating       = 0.30
	weightReliability  = 0.25
)

// Tier thresholds on the composite score
const (
	tierBronzeMin = 40.0
	tierSilverMin = 60.0
	tierGoldMin   = 80.0
)

// AggregateScore maps a seller's raw signals to the four sub-scores, the
// weighted composite, and the tier. Pure and deterministic: the same
// signals always produce the same record, which is what makes concurrent
// last-write-wins recalculation safe.
func AggregateScore(sig *models.SellerSignals) models.TrustScore {
	verification := verificationScore(sig.Verified)
	transaction := transactionScore(sig.CompletedOrders, sig.VolumeKES)
	rating := ratingScore(sig.RatingAverage, sig.RatingCount)
	reliability := reliabilityScore(sig.OnTimeRate, sig.Disputes, sig.DisputesLost)

	composite := round2(verification*weightVerification +
		transaction*weightTransaction +
		rating*weightRating +
		reliability*weightReliability)

	return models.TrustScore{
		VerificationScore: round2(verification),
		TransactionScore:  round2(transaction),
		RatingScore:       round2(rating),
		ReliabilityScore:  round2(reliability),
		CompositeScore:    composite,
		Tier:              tierFor(composite),
	}
}

func verificationScore(verified bool) float64 {
	if verified {
		return 100
	}
	return 0
}

// transactionScore rewards completed volume: up to 60 points for order
// count, up to 40 for cumulative KES volume, both capped.
func transactionScore(completedOrders int, volumeKES int64) float64 {
	countPart := math.Min(60, float64(completedOrders)*3)
	volumePart := math.Min(40, float64(volumeKES)/10000)
	return countPart + volumePart
}

// ratingScore scales the 1-5 average to 0-100 and dampens it by a
// confidence factor so a single 5-star rating does not outrank a long
// consistent history.
func ratingScore(average float64, count int) float64 {
	if count == 0 {
		return 0
	}
	confidence := float64(count) / (float64(count) + 3)
	return average * 20 * confidence
}

// reliabilityScore starts from the on-time confirmation rate and subtracts
// dispute penalties, floored at zero. A lost dispute costs more than an
// open one.
func reliabilityScore(onTimeRate float64, disputes, disputesLost int) float64 {
	penalty := math.Min(50, float64(disputes)*10+float64(disputesLost)*15)
	return math.Max(0, onTimeRate*100-penalty)
}

func tierFor(composite float64) string {
	switch {
	case composite >= tierGoldMin:
		return models.TierGold
	case composite >= tierSilverMin:
		return models.TierSilver
	case composite >= tierBronzeMin:
		return models.TierBronze
	default:
		return models.TierNew
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
