package service

import (
	"testing"
	"time"

	"agrimarket/internal/models"

	"github.com/stretchr/testify/assert"
)

const testCooldown = 24 * time.Hour

func alertAt(target int64, lastTriggered *time.Time) *models.PriceAlert {
	return &models.PriceAlert{
		ID:              1,
		Crop:            "maize",
		County:          "Kiambu",
		TargetPrice:     target,
		Unit:            "kg",
		Active:          true,
		LastTriggeredAt: lastTriggered,
	}
}

func TestShouldFireNeverTriggered(t *testing.T) {
	now := time.Now()
	alert := alertAt(40, nil)

	assert.True(t, ShouldFire(alert, 45, now, testCooldown))
	assert.True(t, ShouldFire(alert, 40, now, testCooldown), "target is inclusive")
	assert.False(t, ShouldFire(alert, 39, now, testCooldown))
}

func TestShouldFireInactive(t *testing.T) {
	alert := alertAt(40, nil)
	alert.Active = false

	assert.False(t, ShouldFire(alert, 100, time.Now(), testCooldown))
}

func TestShouldFireCooldown(t *testing.T) {
	now := time.Now()

	oneHourAgo := now.Add(-1 * time.Hour)
	assert.False(t, ShouldFire(alertAt(40, &oneHourAgo), 45, now, testCooldown),
		"within cooldown: must not re-fire")

	twentyFiveHoursAgo := now.Add(-25 * time.Hour)
	assert.True(t, ShouldFire(alertAt(40, &twentyFiveHoursAgo), 45, now, testCooldown),
		"after cooldown: fires again")

	exactlyCooldownAgo := now.Add(-testCooldown)
	assert.True(t, ShouldFire(alertAt(40, &exactlyCooldownAgo), 45, now, testCooldown),
		"cooldown boundary is inclusive")
}
