package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, email, password_hash, name, avatar, avatar_content_type,
    subscription_type, subscription_expires_at,
    usage_date, usage_photos, usage_messages, usage_recipes,
    streak_current, streak_longest, streak_last_visit,
    goal, gender, age, height_cm, weight_kg, target_weight_kg, activity_level, allergies,
    daily_calories, protein_target, fat_target, carbs_target, water_target_ml, onboarding_completed,
    created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.PasswordHash,
		&i.Name,
		&i.Avatar,
		&i.AvatarContentType,
		&i.SubscriptionType,
		&i.SubscriptionExpiresAt,
		&i.UsageDate,
		&i.UsagePhotos,
		&i.UsageMessages,
		&i.UsageRecipes,
		&i.StreakCurrent,
		&i.StreakLongest,
		&i.StreakLastVisit,
		&i.Goal,
		&i.Gender,
		&i.Age,
		&i.HeightCm,
		&i.WeightKg,
		&i.TargetWeightKg,
		&i.ActivityLevel,
		pq.Array(&i.Allergies),
		&i.DailyCalories,
		&i.ProteinTarget,
		&i.FatTarget,
		&i.CarbsTarget,
		&i.WaterTargetMl,
		&i.OnboardingCompleted,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, password_hash, name)
VALUES ($1, $2, $3)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Email, arg.PasswordHash, arg.Name)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	return scanUser(row)
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

type ListUsersParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteUser = `-- name: DeleteUser :execrows
DELETE FROM users WHERE id = $1`

func (q *Queries) DeleteUser(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateUserProfile = `-- name: UpdateUserProfile :one
UPDATE users SET
    name = $2,
    goal = $3,
    gender = $4,
    age = $5,
    height_cm = $6,
    weight_kg = $7,
    target_weight_kg = $8,
    activity_level = $9,
    allergies = $10,
    daily_calories = $11,
    protein_target = $12,
    fat_target = $13,
    carbs_target = $14,
    water_target_ml = $15,
    onboarding_completed = $16,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	ID                  uuid.UUID
	Name                string
	Goal                sql.NullString
	Gender              sql.NullString
	Age                 sql.NullInt32
	HeightCm            sql.NullFloat64
	WeightKg            sql.NullFloat64
	TargetWeightKg      sql.NullFloat64
	ActivityLevel       sql.NullString
	Allergies           []string
	DailyCalories       int32
	ProteinTarget       int32
	FatTarget           int32
	CarbsTarget         int32
	WaterTargetMl       int32
	OnboardingCompleted bool
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	allergies := arg.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.ID,
		arg.Name,
		arg.Goal,
		arg.Gender,
		arg.Age,
		arg.HeightCm,
		arg.WeightKg,
		arg.TargetWeightKg,
		arg.ActivityLevel,
		pq.Array(allergies),
		arg.DailyCalories,
		arg.ProteinTarget,
		arg.FatTarget,
		arg.CarbsTarget,
		arg.WaterTargetMl,
		arg.OnboardingCompleted,
	)
	return scanUser(row)
}

const updateUserAvatar = `-- name: UpdateUserAvatar :exec
UPDATE users SET avatar = $2, avatar_content_type = $3, updated_at = NOW()
WHERE id = $1`

type UpdateUserAvatarParams struct {
	ID                uuid.UUID
	Avatar            []byte
	AvatarContentType sql.NullString
}

func (q *Queries) UpdateUserAvatar(ctx context.Context, arg UpdateUserAvatarParams) error {
	_, err := q.db.ExecContext(ctx, updateUserAvatar, arg.ID, arg.Avatar, arg.AvatarContentType)
	return err
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = $2, updated_at = NOW()
WHERE id = $1`

type UpdateUserPasswordParams struct {
	ID           uuid.UUID
	PasswordHash string
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.ID, arg.PasswordHash)
	return err
}

// =============================================================================
// Subscription
// =============================================================================

const updateUserSubscription = `-- name: UpdateUserSubscription :one
UPDATE users SET
    subscription_type = $2,
    subscription_expires_at = $3,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + userColumns

type UpdateUserSubscriptionParams struct {
	ID                    uuid.UUID
	SubscriptionType      string
	SubscriptionExpiresAt sql.NullTime
}

func (q *Queries) UpdateUserSubscription(ctx context.Context, arg UpdateUserSubscriptionParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserSubscription, arg.ID, arg.SubscriptionType, arg.SubscriptionExpiresAt)
	return scanUser(row)
}

const downgradeUserSubscription = `-- name: DowngradeUserSubscription :execrows
UPDATE users SET
    subscription_type = 'free',
    subscription_expires_at = NULL,
    updated_at = NOW()
WHERE id = $1
  AND subscription_type = 'pro'
  AND subscription_expires_at IS NOT NULL
  AND subscription_expires_at < $2`

type DowngradeUserSubscriptionParams struct {
	ID  uuid.UUID
	Now time.Time
}

// DowngradeUserSubscription only touches a plan that is still expired, so a
// grant racing with a read is never overwritten.
func (q *Queries) DowngradeUserSubscription(ctx context.Context, arg DowngradeUserSubscriptionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, downgradeUserSubscription, arg.ID, arg.Now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const downgradeExpiredSubscriptions = `-- name: DowngradeExpiredSubscriptions :execrows
UPDATE users SET
    subscription_type = 'free',
    subscription_expires_at = NULL,
    updated_at = NOW()
WHERE subscription_type = 'pro'
  AND subscription_expires_at IS NOT NULL
  AND subscription_expires_at < $1`

func (q *Queries) DowngradeExpiredSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, downgradeExpiredSubscriptions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// =============================================================================
// Usage
// =============================================================================

const incrementUserUsage = `-- name: IncrementUserUsage :one
UPDATE users SET
    usage_photos   = (CASE WHEN usage_date = $2 THEN usage_photos ELSE 0 END)   + (CASE WHEN $3::text = 'photos' THEN 1 ELSE 0 END),
    usage_messages = (CASE WHEN usage_date = $2 THEN usage_messages ELSE 0 END) + (CASE WHEN $3::text = 'messages' THEN 1 ELSE 0 END),
    usage_recipes  = (CASE WHEN usage_date = $2 THEN usage_recipes ELSE 0 END)  + (CASE WHEN $3::text = 'recipes' THEN 1 ELSE 0 END),
    usage_date     = $2,
    updated_at     = NOW()
WHERE id = $1
RETURNING usage_date, usage_photos, usage_messages, usage_recipes`

type IncrementUserUsageParams struct {
	ID        uuid.UUID
	UsageDate string
	Kind      string
}

type IncrementUserUsageRow struct {
	UsageDate     sql.NullString
	UsagePhotos   int32
	UsageMessages int32
	UsageRecipes  int32
}

// IncrementUserUsage resets a stale bucket and bumps one counter in a single
// statement, so concurrent increments are never lost.
func (q *Queries) IncrementUserUsage(ctx context.Context, arg IncrementUserUsageParams) (IncrementUserUsageRow, error) {
	row := q.db.QueryRowContext(ctx, incrementUserUsage, arg.ID, arg.UsageDate, arg.Kind)
	var i IncrementUserUsageRow
	err := row.Scan(&i.UsageDate, &i.UsagePhotos, &i.UsageMessages, &i.UsageRecipes)
	return i, err
}

// =============================================================================
// Streak
// =============================================================================

const updateUserStreak = `-- name: UpdateUserStreak :exec
UPDATE users SET
    streak_current = $2,
    streak_longest = $3,
    streak_last_visit = $4,
    updated_at = NOW()
WHERE id = $1`

type UpdateUserStreakParams struct {
	ID              uuid.UUID
	StreakCurrent   int32
	StreakLongest   int32
	StreakLastVisit sql.NullTime
}

func (q *Queries) UpdateUserStreak(ctx context.Context, arg UpdateUserStreakParams) error {
	_, err := q.db.ExecContext(ctx, updateUserStreak, arg.ID, arg.StreakCurrent, arg.StreakLongest, arg.StreakLastVisit)
	return err
}

const listActiveStreaks = `-- name: ListActiveStreaks :many
SELECT id, streak_current, streak_longest, streak_last_visit
FROM users
WHERE streak_current > 0 AND streak_last_visit IS NOT NULL AND streak_last_visit < $1`

type ListActiveStreaksRow struct {
	ID              uuid.UUID
	StreakCurrent   int32
	StreakLongest   int32
	StreakLastVisit sql.NullTime
}

// ListActiveStreaks returns non-zero streaks last touched before the cutoff.
func (q *Queries) ListActiveStreaks(ctx context.Context, before time.Time) ([]ListActiveStreaksRow, error) {
	rows, err := q.db.QueryContext(ctx, listActiveStreaks, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListActiveStreaksRow
	for rows.Next() {
		var i ListActiveStreaksRow
		if err := rows.Scan(&i.ID, &i.StreakCurrent, &i.StreakLongest, &i.StreakLastVisit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const resetUserStreak = `-- name: ResetUserStreak :execrows
UPDATE users SET streak_current = 0, updated_at = NOW()
WHERE id = $1 AND streak_last_visit = $2 AND streak_current > 0`

type ResetUserStreakParams struct {
	ID              uuid.UUID
	StreakLastVisit time.Time
}

// ResetUserStreak zeroes a streak unless new activity arrived since it was read.
func (q *Queries) ResetUserStreak(ctx context.Context, arg ResetUserStreakParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, resetUserStreak, arg.ID, arg.StreakLastVisit)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// =============================================================================
// Stats
// =============================================================================

const countUsersBySubscription = `-- name: CountUsersBySubscription :many
SELECT subscription_type, COUNT(*) FROM users GROUP BY subscription_type`

type CountUsersBySubscriptionRow struct {
	SubscriptionType string
	Count            int64
}

func (q *Queries) CountUsersBySubscription(ctx context.Context) ([]CountUsersBySubscriptionRow, error) {
	rows, err := q.db.QueryContext(ctx, countUsersBySubscription)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountUsersBySubscriptionRow
	for rows.Next() {
		var i CountUsersBySubscriptionRow
		if err := rows.Scan(&i.SubscriptionType, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumUsageOn = `-- name: SumUsageOn :one
SELECT COUNT(*),
       COALESCE(SUM(usage_photos), 0)::bigint,
       COALESCE(SUM(usage_messages), 0)::bigint,
       COALESCE(SUM(usage_recipes), 0)::bigint
FROM users WHERE usage_date = $1`

type SumUsageOnRow struct {
	ActiveUsers int64
	Photos      int64
	Messages    int64
	Recipes     int64
}

// SumUsageOn totals the buckets that belong to date; stale buckets are ignored.
func (q *Queries) SumUsageOn(ctx context.Context, date string) (SumUsageOnRow, error) {
	row := q.db.QueryRowContext(ctx, sumUsageOn, date)
	var i SumUsageOnRow
	err := row.Scan(&i.ActiveUsers, &i.Photos, &i.Messages, &i.Recipes)
	return i, err
}
