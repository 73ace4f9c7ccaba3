package service

import (
	"context"
	"fmt"
	"time"

	"agrimarket/internal/models"
	"agrimarket/internal/store"
	"agrimarket/internal/util"

	"go.uber.org/zap"
)

// ListingService owns listing creation and the price read surface
type ListingService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewListingService creates a new listing service
func NewListingService(store *store.Store) *ListingService {
	return &ListingService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateListingRequest represents a seller's new listing
type CreateListingRequest struct {
	Crop         string  `json:"crop" binding:"required"`
	County       string  `json:"county" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	Unit         string  `json:"unit" binding:"required"`
	PricePerUnit int64   `json:"price_per_unit" binding:"required,gt=0"`
}

// CreateListing creates a listing and appends its asking price to the
// observation series. The observation write is best-effort: a listing is
// still valid if the price point could not be recorded.
func (ls *ListingService) CreateListing(ctx context.Context, caller AuthContext, req *CreateListingRequest) (*models.Listing, error) {
	if caller.Role != models.RoleSeller {
		return nil, ErrForbidden
	}

	listing := &models.Listing{
		SellerID:     caller.UserID,
		Crop:         req.Crop,
		County:       req.County,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		PricePerUnit: req.PricePerUnit,
		Status:       "open",
	}
	if err := ls.store.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	obs := &models.PriceObservation{
		Crop:         listing.Crop,
		County:       listing.County,
		PricePerUnit: listing.PricePerUnit,
		Unit:         listing.Unit,
		Source:       models.ObservationSourceListing,
		ObservedAt:   time.Now().UTC(),
	}
	if err := ls.store.AppendPriceObservation(ctx, obs); err != nil {
		ls.logger.Error("Failed to append listing price observation",
			zap.Int64("listing_id", listing.ID),
			zap.Error(err))
	} else {
		util.PriceObservationsTotal.WithLabelValues(models.ObservationSourceListing).Inc()
	}

	return listing, nil
}

// RecentPrices returns the latest observations for a crop/county
func (ls *ListingService) RecentPrices(ctx context.Context, crop, county string, limit int) ([]models.PriceObservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return ls.store.GetRecentObservations(ctx, crop, county, limit)
}
