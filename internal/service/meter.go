package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

// Meter records the side effects of a successful user action: the usage
// increment and the streak update. Both run after the response is known to
// succeed, so failures are logged rather than returned.
type Meter struct {
	usage   UsageService
	streaks StreakService
	logger  *slog.Logger
}

// NewMeter creates a Meter.
func NewMeter(usage UsageService, streaks StreakService, logger *slog.Logger) *Meter {
	return &Meter{usage: usage, streaks: streaks, logger: logger}
}

// Record counts one action of kind and marks today active.
func (m *Meter) Record(ctx context.Context, userID uuid.UUID, kind domain.UsageKind) {
	if _, err := m.usage.Increment(ctx, userID, kind); err != nil {
		m.logger.Error("failed to record usage", "user_id", userID, "kind", kind, "error", err)
	}
	m.Activity(ctx, userID)
}

// Activity marks today active without touching usage counters.
func (m *Meter) Activity(ctx context.Context, userID uuid.UUID) {
	if _, err := m.streaks.RecordActivity(ctx, userID); err != nil {
		m.logger.Error("failed to record streak activity", "user_id", userID, "error", err)
	}
}
