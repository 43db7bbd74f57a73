package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"steeple/pkg/domain"
)

// UsageStore records which member's email holds the claim on a device for a
// given service day. Claim must be atomic: when two requests race for the
// same key, exactly one observes claimed == true.
type UsageStore interface {
	Claim(ctx context.Context, key, email string, ttl time.Duration) (holder string, claimed bool, err error)
	Release(ctx context.Context, key string) error
}

// Guard enforces one attendance mark per device per service per calendar
// day. Claims expire after the configured TTL so a shared kiosk device frees
// up for the next day without manual cleanup.
type Guard struct {
	store  UsageStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewGuard(store UsageStore, ttl time.Duration, logger *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Guard{store: store, ttl: ttl, logger: logger}
}

// Outcome reports whether the device may be used and, on rejection, which
// email already claimed it. NewlyClaimed is true only when this call created
// the claim; callers must not release a claim they did not create, or a
// failed retry would free a device another member could then reuse.
type Outcome struct {
	Allowed       bool
	NewlyClaimed  bool
	ExistingEmail string
}

// Key builds the usage key for a device on a given calendar day and service.
// calendarDay is an ISO date in the church's zone.
func Key(deviceID, calendarDay string, service domain.ServiceType) string {
	return fmt.Sprintf("%s-%s-%s", deviceID, calendarDay, service)
}

// Check claims the device for the given email. A device already claimed by
// the same email passes; the duplicate-attendance check downstream decides
// what happens to the member.
func (g *Guard) Check(ctx context.Context, deviceID, calendarDay string, service domain.ServiceType, email string) (Outcome, error) {
	key := Key(deviceID, calendarDay, service)
	holder, claimed, err := g.store.Claim(ctx, key, email, g.ttl)
	if err != nil {
		return Outcome{}, fmt.Errorf("claim device usage: %w", err)
	}
	if claimed {
		return Outcome{Allowed: true, NewlyClaimed: true}, nil
	}
	if holder == email {
		return Outcome{Allowed: true}, nil
	}

	g.logger.WarnContext(ctx, "device already used for service",
		"device_id", deviceID,
		"service", service.String(),
		"day", calendarDay,
	)
	return Outcome{Allowed: false, ExistingEmail: holder}, nil
}

// Release frees a claim made by Check. Called when the attendance pipeline
// fails after the device was claimed, so the member can retry from the same
// device.
func (g *Guard) Release(ctx context.Context, deviceID, calendarDay string, service domain.ServiceType) {
	key := Key(deviceID, calendarDay, service)
	if err := g.store.Release(ctx, key); err != nil {
		g.logger.ErrorContext(ctx, "release device claim failed", "key", key, "error", err)
	}
}
