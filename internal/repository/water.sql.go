package repository

import (
	"context"

	"github.com/google/uuid"
)

const getWaterIntake = `-- name: GetWaterIntake :one
SELECT user_id, date, amount_ml, updated_at
FROM water_intake WHERE user_id = $1 AND date = $2`

type GetWaterIntakeParams struct {
	UserID uuid.UUID
	Date   string
}

func (q *Queries) GetWaterIntake(ctx context.Context, arg GetWaterIntakeParams) (WaterIntake, error) {
	row := q.db.QueryRowContext(ctx, getWaterIntake, arg.UserID, arg.Date)
	var i WaterIntake
	err := row.Scan(&i.UserID, &i.Date, &i.AmountMl, &i.UpdatedAt)
	return i, err
}

const upsertWaterIntake = `-- name: UpsertWaterIntake :one
INSERT INTO water_intake (user_id, date, amount_ml)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, date) DO UPDATE SET amount_ml = EXCLUDED.amount_ml, updated_at = NOW()
RETURNING user_id, date, amount_ml, updated_at`

type UpsertWaterIntakeParams struct {
	UserID   uuid.UUID
	Date     string
	AmountMl int32
}

// UpsertWaterIntake replaces the day's amount wholesale.
func (q *Queries) UpsertWaterIntake(ctx context.Context, arg UpsertWaterIntakeParams) (WaterIntake, error) {
	row := q.db.QueryRowContext(ctx, upsertWaterIntake, arg.UserID, arg.Date, arg.AmountMl)
	var i WaterIntake
	err := row.Scan(&i.UserID, &i.Date, &i.AmountMl, &i.UpdatedAt)
	return i, err
}
