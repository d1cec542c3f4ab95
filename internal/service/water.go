package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// WaterService reads and saves daily water intake.
type WaterService interface {
	// Get returns the intake for a date, amount 0 when nothing was saved.
	Get(ctx context.Context, userID uuid.UUID, date string) (*domain.WaterIntake, error)

	// Save replaces the amount for a date.
	Save(ctx context.Context, userID uuid.UUID, date string, amountMl int) (*domain.WaterIntake, error)
}

// WaterStore is the persistence needed by WaterService.
type WaterStore interface {
	GetWaterIntake(ctx context.Context, arg repository.GetWaterIntakeParams) (repository.WaterIntake, error)
	UpsertWaterIntake(ctx context.Context, arg repository.UpsertWaterIntakeParams) (repository.WaterIntake, error)
}

type waterService struct {
	store  WaterStore
	cal    *domain.Calendar
	logger *slog.Logger
}

var _ WaterService = (*waterService)(nil)

// NewWaterService creates a new WaterService instance.
func NewWaterService(store WaterStore, cal *domain.Calendar, logger *slog.Logger) WaterService {
	return &waterService{store: store, cal: cal, logger: logger}
}

func (s *waterService) Get(ctx context.Context, userID uuid.UUID, date string) (*domain.WaterIntake, error) {
	const op = "WaterService.Get"

	if _, err := s.cal.ParseDate(date); err != nil {
		return nil, domain.NewValidationError(op, "date", "Date must be in YYYY-MM-DD format")
	}

	row, err := s.store.GetWaterIntake(ctx, repository.GetWaterIntakeParams{UserID: userID, Date: date})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.WaterIntake{UserID: userID, Date: date}, nil
		}
		return nil, domain.Internal(err, op, "Failed to retrieve water intake")
	}
	return repoWaterToDomain(row), nil
}

func (s *waterService) Save(ctx context.Context, userID uuid.UUID, date string, amountMl int) (*domain.WaterIntake, error) {
	const op = "WaterService.Save"

	if err := domain.ValidateWaterIntake(s.cal, date, amountMl); err != nil {
		return nil, err
	}

	row, err := s.store.UpsertWaterIntake(ctx, repository.UpsertWaterIntakeParams{
		UserID:   userID,
		Date:     date,
		AmountMl: int32(amountMl),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save water intake")
	}

	s.logger.Debug("water intake saved", "user_id", userID, "date", date, "amount_ml", amountMl)
	return repoWaterToDomain(row), nil
}

func repoWaterToDomain(w repository.WaterIntake) *domain.WaterIntake {
	return &domain.WaterIntake{
		UserID:    w.UserID,
		Date:      w.Date,
		AmountMl:  int(w.AmountMl),
		UpdatedAt: w.UpdatedAt,
	}
}
