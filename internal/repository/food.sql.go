package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const foodEntryColumns = `id, user_id, name, calories, protein, fat, carbs, health_score, meal_type,
    image, image_content_type, eaten_at, created_at, updated_at`

func scanFoodEntry(row scanner) (FoodEntry, error) {
	var i FoodEntry
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Calories,
		&i.Protein,
		&i.Fat,
		&i.Carbs,
		&i.HealthScore,
		&i.MealType,
		&i.Image,
		&i.ImageContentType,
		&i.EatenAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectFoodEntries(rows *sql.Rows) ([]FoodEntry, error) {
	defer rows.Close()
	var items []FoodEntry
	for rows.Next() {
		i, err := scanFoodEntry(rows)
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

const createFoodEntry = `-- name: CreateFoodEntry :one
INSERT INTO food_entries (user_id, name, calories, protein, fat, carbs, health_score, meal_type, image, image_content_type, eaten_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + foodEntryColumns

type CreateFoodEntryParams struct {
	UserID           uuid.UUID
	Name             string
	Calories         int32
	Protein          float64
	Fat              float64
	Carbs            float64
	HealthScore      int32
	MealType         string
	Image            []byte
	ImageContentType sql.NullString
	EatenAt          time.Time
}

func (q *Queries) CreateFoodEntry(ctx context.Context, arg CreateFoodEntryParams) (FoodEntry, error) {
	row := q.db.QueryRowContext(ctx, createFoodEntry,
		arg.UserID,
		arg.Name,
		arg.Calories,
		arg.Protein,
		arg.Fat,
		arg.Carbs,
		arg.HealthScore,
		arg.MealType,
		arg.Image,
		arg.ImageContentType,
		arg.EatenAt,
	)
	return scanFoodEntry(row)
}

const getFoodEntryByID = `-- name: GetFoodEntryByID :one
SELECT ` + foodEntryColumns + ` FROM food_entries WHERE id = $1`

func (q *Queries) GetFoodEntryByID(ctx context.Context, id uuid.UUID) (FoodEntry, error) {
	row := q.db.QueryRowContext(ctx, getFoodEntryByID, id)
	return scanFoodEntry(row)
}

const listFoodEntriesByUser = `-- name: ListFoodEntriesByUser :many
SELECT ` + foodEntryColumns + ` FROM food_entries
WHERE user_id = $1
ORDER BY eaten_at DESC
LIMIT $2 OFFSET $3`

type ListFoodEntriesByUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

func (q *Queries) ListFoodEntriesByUser(ctx context.Context, arg ListFoodEntriesByUserParams) ([]FoodEntry, error) {
	rows, err := q.db.QueryContext(ctx, listFoodEntriesByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectFoodEntries(rows)
}

const listFoodEntriesBetween = `-- name: ListFoodEntriesBetween :many
SELECT ` + foodEntryColumns + ` FROM food_entries
WHERE user_id = $1 AND eaten_at >= $2 AND eaten_at < $3
ORDER BY eaten_at ASC`

type ListFoodEntriesBetweenParams struct {
	UserID uuid.UUID
	Start  time.Time
	End    time.Time
}

func (q *Queries) ListFoodEntriesBetween(ctx context.Context, arg ListFoodEntriesBetweenParams) ([]FoodEntry, error) {
	rows, err := q.db.QueryContext(ctx, listFoodEntriesBetween, arg.UserID, arg.Start, arg.End)
	if err != nil {
		return nil, err
	}
	return collectFoodEntries(rows)
}

const updateFoodEntry = `-- name: UpdateFoodEntry :one
UPDATE food_entries SET
    name = $3,
    calories = $4,
    protein = $5,
    fat = $6,
    carbs = $7,
    health_score = $8,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
RETURNING ` + foodEntryColumns

type UpdateFoodEntryParams struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Calories    int32
	Protein     float64
	Fat         float64
	Carbs       float64
	HealthScore int32
}

func (q *Queries) UpdateFoodEntry(ctx context.Context, arg UpdateFoodEntryParams) (FoodEntry, error) {
	row := q.db.QueryRowContext(ctx, updateFoodEntry,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Calories,
		arg.Protein,
		arg.Fat,
		arg.Carbs,
		arg.HealthScore,
	)
	return scanFoodEntry(row)
}

const deleteFoodEntry = `-- name: DeleteFoodEntry :execrows
DELETE FROM food_entries WHERE id = $1 AND user_id = $2`

type DeleteFoodEntryParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteFoodEntry(ctx context.Context, arg DeleteFoodEntryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFoodEntry, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countFoodEntries = `-- name: CountFoodEntries :one
SELECT COUNT(*) FROM food_entries`

func (q *Queries) CountFoodEntries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countFoodEntries)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// =============================================================================
// Favorites
// =============================================================================

const createFavoriteFood = `-- name: CreateFavoriteFood :one
INSERT INTO favorite_foods (user_id, name, calories, protein, fat, carbs)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, name, calories, protein, fat, carbs, created_at`

type CreateFavoriteFoodParams struct {
	UserID   uuid.UUID
	Name     string
	Calories int32
	Protein  float64
	Fat      float64
	Carbs    float64
}

func (q *Queries) CreateFavoriteFood(ctx context.Context, arg CreateFavoriteFoodParams) (FavoriteFood, error) {
	row := q.db.QueryRowContext(ctx, createFavoriteFood, arg.UserID, arg.Name, arg.Calories, arg.Protein, arg.Fat, arg.Carbs)
	var i FavoriteFood
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Calories, &i.Protein, &i.Fat, &i.Carbs, &i.CreatedAt)
	return i, err
}

const getFavoriteFood = `-- name: GetFavoriteFood :one
SELECT id, user_id, name, calories, protein, fat, carbs, created_at
FROM favorite_foods WHERE id = $1 AND user_id = $2`

type GetFavoriteFoodParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetFavoriteFood(ctx context.Context, arg GetFavoriteFoodParams) (FavoriteFood, error) {
	row := q.db.QueryRowContext(ctx, getFavoriteFood, arg.ID, arg.UserID)
	var i FavoriteFood
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.Calories, &i.Protein, &i.Fat, &i.Carbs, &i.CreatedAt)
	return i, err
}

const listFavoriteFoods = `-- name: ListFavoriteFoods :many
SELECT id, user_id, name, calories, protein, fat, carbs, created_at
FROM favorite_foods WHERE user_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListFavoriteFoods(ctx context.Context, userID uuid.UUID) ([]FavoriteFood, error) {
	rows, err := q.db.QueryContext(ctx, listFavoriteFoods, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FavoriteFood
	for rows.Next() {
		var i FavoriteFood
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.Calories, &i.Protein, &i.Fat, &i.Carbs, &i.CreatedAt); err != nil {
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

const deleteFavoriteFood = `-- name: DeleteFavoriteFood :execrows
DELETE FROM favorite_foods WHERE id = $1 AND user_id = $2`

type DeleteFavoriteFoodParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) DeleteFavoriteFood(ctx context.Context, arg DeleteFavoriteFoodParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFavoriteFood, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
