package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxWaterAmountMl bounds a single day's recorded intake.
const MaxWaterAmountMl = 20000

// WaterIntake is the running total of water for one local date.
// Saving replaces the amount rather than adding to it.
type WaterIntake struct {
	UserID    uuid.UUID
	Date      string
	AmountMl  int
	UpdatedAt time.Time
}

// ValidateWaterIntake checks a save request.
func ValidateWaterIntake(cal *Calendar, date string, amountMl int) error {
	const op = "water.validate"

	if date == "" {
		return NewValidationError(op, "date", "Date is required")
	}
	if _, err := cal.ParseDate(date); err != nil {
		return NewValidationError(op, "date", "Date must be in YYYY-MM-DD format")
	}
	if amountMl < 0 {
		return NewValidationError(op, "amount", "Amount must not be negative")
	}
	if amountMl > MaxWaterAmountMl {
		return NewValidationError(op, "amount", "Amount is unrealistically large")
	}
	return nil
}
