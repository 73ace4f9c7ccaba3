package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrimarket/internal/models"
	"agrimarket/internal/notify"
	"agrimarket/internal/redisclient"
	"agrimarket/internal/store"
	"agrimarket/internal/util"

	"go.uber.org/zap"
)

const sweepLockKey = "alert-sweep"

// ShouldFire is the single matching predicate shared by the reactive path
// and the sweep. An alert fires iff it is active, the observed price meets
// the target, and the cooldown has elapsed since the last firing.
func ShouldFire(alert *models.PriceAlert, observedPrice int64, now time.Time, cooldown time.Duration) bool {
	if !alert.Active {
		return false
	}
	if observedPrice < alert.TargetPrice {
		return false
	}
	if alert.LastTriggeredAt == nil {
		return true
	}
	return now.Sub(*alert.LastTriggeredAt) >= cooldown
}

// AlertService owns price alerts: CRUD, the reactive evaluation invoked by
// settlement, and the periodic sweep. Both firing paths go through the same
// fireAlert sequence so the cooldown discipline cannot diverge.
type AlertService struct {
	store       *store.Store
	redis       *redisclient.Client
	notifier    notify.Notifier
	cooldown    time.Duration
	sweepBatch  int
	sweepWindow time.Duration
	logger      *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	store *store.Store,
	redis *redisclient.Client,
	notifier notify.Notifier,
	cooldown time.Duration,
	sweepBatch int,
	sweepWindow time.Duration,
) *AlertService {
	return &AlertService{
		store:       store,
		redis:       redis,
		notifier:    notifier,
		cooldown:    cooldown,
		sweepBatch:  sweepBatch,
		sweepWindow: sweepWindow,
		logger:      util.GetLogger(),
	}
}

// CreateAlertRequest represents a seller's new price alert
type CreateAlertRequest struct {
	Crop         string `json:"crop" binding:"required"`
	County       string `json:"county" binding:"required"`
	TargetPrice  int64  `json:"target_price" binding:"required,gt=0"`
	Unit         string `json:"unit" binding:"required"`
	NotifyMethod string `json:"notify_method" binding:"required,oneof=sms"`
	Recipient    string `json:"recipient" binding:"required"`
}

// CreateAlert creates an active alert for the calling seller
func (a *AlertService) CreateAlert(ctx context.Context, caller AuthContext, req *CreateAlertRequest) (*models.PriceAlert, error) {
	if caller.Role != models.RoleSeller {
		return nil, ErrForbidden
	}

	alert := &models.PriceAlert{
		SellerID:     caller.UserID,
		Crop:         req.Crop,
		County:       req.County,
		TargetPrice:  req.TargetPrice,
		Unit:         req.Unit,
		NotifyMethod: req.NotifyMethod,
		Recipient:    req.Recipient,
		Active:       true,
	}
	if err := a.store.CreatePriceAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// ListAlerts returns the calling seller's alerts
func (a *AlertService) ListAlerts(ctx context.Context, caller AuthContext) ([]models.PriceAlert, error) {
	if caller.Role != models.RoleSeller {
		return nil, ErrForbidden
	}
	return a.store.GetPriceAlertsBySellerID(ctx, caller.UserID)
}

// DeactivateAlert deactivates an alert owned by the caller
func (a *AlertService) DeactivateAlert(ctx context.Context, caller AuthContext, alertID int64) error {
	if caller.Role != models.RoleSeller {
		return ErrForbidden
	}
	ok, err := a.store.DeactivatePriceAlert(ctx, alertID, caller.UserID)
	if err != nil {
		return fmt.Errorf("failed to deactivate alert: %w", err)
	}
	if !ok {
		// Either the alert does not exist or it belongs to someone else;
		// the caller cannot tell which.
		if _, err := a.store.GetPriceAlertByID(ctx, alertID); errors.Is(err, store.ErrNoRows) {
			return ErrNotFound
		}
		return ErrForbidden
	}
	return nil
}

// EvaluateObservation is the reactive path: finds alerts matching a fresh
// price observation and fires them. Returns the number of alerts fired.
func (a *AlertService) EvaluateObservation(ctx context.Context, crop, county string, price int64, unit string, now time.Time) (int, error) {
	alerts, err := a.store.GetMatchingAlerts(ctx, crop, county, price, a.cooldown, now)
	if err != nil {
		return 0, fmt.Errorf("failed to query matching alerts: %w", err)
	}

	fired := 0
	for i := range alerts {
		util.AlertsEvaluatedTotal.WithLabelValues("reactive").Inc()
		if a.fireAlert(ctx, &alerts[i], price, now, "reactive") {
			fired++
		}
	}
	return fired, nil
}

// Sweep is the proactive path: re-evaluates a bounded batch of active
// alerts against the trailing-window average price for their crop/county.
// Returns counts of alerts checked and triggered.
func (a *AlertService) Sweep(ctx context.Context) (checked, triggered int, err error) {
	start := time.Now()
	defer func() {
		util.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	locked, err := a.redis.AcquireLock(ctx, sweepLockKey, 5*time.Minute)
	if err != nil {
		a.logger.Warn("Sweep lock unavailable, proceeding without it", zap.Error(err))
	} else if !locked {
		a.logger.Info("Sweep already running, skipping")
		return 0, 0, nil
	} else {
		defer func() {
			if err := a.redis.ReleaseLock(context.Background(), sweepLockKey); err != nil {
				a.logger.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	alerts, err := a.store.GetActiveAlertsBatch(ctx, a.sweepBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load active alerts: %w", err)
	}

	now := time.Now().UTC()
	for i := range alerts {
		alert := &alerts[i]
		checked++
		util.AlertsEvaluatedTotal.WithLabelValues("sweep").Inc()

		avg, ok, err := a.store.TrailingAveragePrice(ctx, alert.Crop, alert.County, a.sweepWindow, now)
		if err != nil {
			a.logger.Error("Failed to compute trailing average",
				zap.Int64("alert_id", alert.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		if !ShouldFire(alert, avg, now, a.cooldown) {
			continue
		}
		if a.fireAlert(ctx, alert, avg, now, "sweep") {
			triggered++
		}
	}

	a.logger.Info("Alert sweep finished",
		zap.Int("checked", checked),
		zap.Int("triggered", triggered))
	return checked, triggered, nil
}

// fireAlert performs the shared dispatch-and-mark sequence. The conditional
// mark runs first: it re-checks the cooldown at write time, so of two
// concurrent firers (reactive vs sweep) exactly one wins and only the
// winner dispatches. Notification failures are swallowed and logged; the
// next sweep retries if conditions still hold after the cooldown.
func (a *AlertService) fireAlert(ctx context.Context, alert *models.PriceAlert, price int64, now time.Time, path string) bool {
	won, err := a.store.MarkAlertTriggered(ctx, alert.ID, now, a.cooldown)
	if err != nil {
		a.logger.Error("Failed to mark alert triggered",
			zap.Int64("alert_id", alert.ID),
			zap.String("path", path),
			zap.Error(err))
		return false
	}
	if !won {
		return false
	}

	util.AlertsTriggeredTotal.WithLabelValues(path).Inc()

	message := fmt.Sprintf("Price alert: %s in %s is trading at %d KES/%s (your target: %d)",
		alert.Crop, alert.County, price, alert.Unit, alert.TargetPrice)

	if err := a.notifier.Send(ctx, alert.Recipient, message); err != nil {
		util.NotificationsFailedTotal.Inc()
		a.logger.Error("Failed to dispatch alert notification",
			zap.Int64("alert_id", alert.ID),
			zap.String("recipient", alert.Recipient),
			zap.String("path", path),
			zap.Error(err))
		return true
	}

	util.NotificationsSentTotal.Inc()
	a.logger.Info("Alert fired",
		zap.Int64("alert_id", alert.ID),
		zap.String("path", path),
		zap.Int64("price", price))
	return true
}
