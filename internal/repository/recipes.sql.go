package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const recipeColumns = `r.id, r.user_id, r.name, r.description, r.calories, r.protein, r.fat, r.carbs,
    r.prep_minutes, r.cook_time, r.difficulty, r.servings, r.ingredients, r.instructions,
    r.image, r.image_content_type, r.created_at, r.updated_at`

func recipeDest(i *Recipe) []interface{} {
	return []interface{}{
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Description,
		&i.Calories,
		&i.Protein,
		&i.Fat,
		&i.Carbs,
		&i.PrepMinutes,
		&i.CookTime,
		&i.Difficulty,
		&i.Servings,
		&i.Ingredients,
		pq.Array(&i.Instructions),
		&i.Image,
		&i.ImageContentType,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
}

// RecipeRow is a recipe plus whether the requesting user saved it.
type RecipeRow struct {
	Recipe
	IsFavorite bool
}

func scanRecipeRow(row scanner) (RecipeRow, error) {
	var i RecipeRow
	dest := append(recipeDest(&i.Recipe), &i.IsFavorite)
	err := row.Scan(dest...)
	return i, err
}

func collectRecipeRows(rows *sql.Rows) ([]RecipeRow, error) {
	defer rows.Close()
	var items []RecipeRow
	for rows.Next() {
		i, err := scanRecipeRow(rows)
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

const createRecipe = `-- name: CreateRecipe :one
INSERT INTO recipes AS r (user_id, name, description, calories, protein, fat, carbs,
    prep_minutes, cook_time, difficulty, servings, ingredients, instructions, image, image_content_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + recipeColumns + `, FALSE`

type CreateRecipeParams struct {
	UserID           uuid.NullUUID
	Name             string
	Description      string
	Calories         int32
	Protein          float64
	Fat              float64
	Carbs            float64
	PrepMinutes      int32
	CookTime         string
	Difficulty       string
	Servings         int32
	Ingredients      pqtype.NullRawMessage
	Instructions     []string
	Image            []byte
	ImageContentType sql.NullString
}

func (q *Queries) CreateRecipe(ctx context.Context, arg CreateRecipeParams) (RecipeRow, error) {
	instructions := arg.Instructions
	if instructions == nil {
		instructions = []string{}
	}
	row := q.db.QueryRowContext(ctx, createRecipe,
		arg.UserID,
		arg.Name,
		arg.Description,
		arg.Calories,
		arg.Protein,
		arg.Fat,
		arg.Carbs,
		arg.PrepMinutes,
		arg.CookTime,
		arg.Difficulty,
		arg.Servings,
		arg.Ingredients,
		pq.Array(instructions),
		arg.Image,
		arg.ImageContentType,
	)
	return scanRecipeRow(row)
}

const getRecipeForUser = `-- name: GetRecipeForUser :one
SELECT ` + recipeColumns + `,
    EXISTS (SELECT 1 FROM favorite_recipes f WHERE f.recipe_id = r.id AND f.user_id = $2) AS is_favorite
FROM recipes r
WHERE r.id = $1`

type GetRecipeForUserParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetRecipeForUser(ctx context.Context, arg GetRecipeForUserParams) (RecipeRow, error) {
	row := q.db.QueryRowContext(ctx, getRecipeForUser, arg.ID, arg.UserID)
	return scanRecipeRow(row)
}

const listRecipesForUser = `-- name: ListRecipesForUser :many
SELECT ` + recipeColumns + `,
    EXISTS (SELECT 1 FROM favorite_recipes f WHERE f.recipe_id = r.id AND f.user_id = $1) AS is_favorite
FROM recipes r
WHERE r.user_id = $1 OR r.user_id IS NULL
ORDER BY r.user_id IS NULL, r.created_at DESC
LIMIT $2 OFFSET $3`

type ListRecipesForUserParams struct {
	UserID uuid.UUID
	Limit  int32
	Offset int32
}

// ListRecipesForUser returns the user's own recipes first, then built-in ones.
func (q *Queries) ListRecipesForUser(ctx context.Context, arg ListRecipesForUserParams) ([]RecipeRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecipesForUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return collectRecipeRows(rows)
}

const listFavoriteRecipes = `-- name: ListFavoriteRecipes :many
SELECT ` + recipeColumns + `, TRUE
FROM recipes r
JOIN favorite_recipes f ON f.recipe_id = r.id
WHERE f.user_id = $1
ORDER BY f.created_at DESC`

func (q *Queries) ListFavoriteRecipes(ctx context.Context, userID uuid.UUID) ([]RecipeRow, error) {
	rows, err := q.db.QueryContext(ctx, listFavoriteRecipes, userID)
	if err != nil {
		return nil, err
	}
	return collectRecipeRows(rows)
}

const deleteRecipe = `-- name: DeleteRecipe :execrows
DELETE FROM recipes WHERE id = $1 AND user_id = $2`

type DeleteRecipeParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// DeleteRecipe never matches built-in recipes since their owner is NULL.
func (q *Queries) DeleteRecipe(ctx context.Context, arg DeleteRecipeParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecipe, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateRecipe = `-- name: UpdateRecipe :one
UPDATE recipes AS r SET
    name = $3,
    description = $4,
    calories = $5,
    protein = $6,
    fat = $7,
    carbs = $8,
    prep_minutes = $9,
    cook_time = $10,
    difficulty = $11,
    servings = $12,
    ingredients = $13,
    instructions = $14,
    updated_at = NOW()
WHERE r.id = $1 AND r.user_id = $2
RETURNING ` + recipeColumns + `,
    EXISTS (SELECT 1 FROM favorite_recipes f WHERE f.recipe_id = r.id AND f.user_id = $2) AS is_favorite`

type UpdateRecipeParams struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         string
	Description  string
	Calories     int32
	Protein      float64
	Fat          float64
	Carbs        float64
	PrepMinutes  int32
	CookTime     string
	Difficulty   string
	Servings     int32
	Ingredients  pqtype.NullRawMessage
	Instructions []string
}

// UpdateRecipe never matches built-in recipes since their owner is NULL.
func (q *Queries) UpdateRecipe(ctx context.Context, arg UpdateRecipeParams) (RecipeRow, error) {
	instructions := arg.Instructions
	if instructions == nil {
		instructions = []string{}
	}
	row := q.db.QueryRowContext(ctx, updateRecipe,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Description,
		arg.Calories,
		arg.Protein,
		arg.Fat,
		arg.Carbs,
		arg.PrepMinutes,
		arg.CookTime,
		arg.Difficulty,
		arg.Servings,
		arg.Ingredients,
		pq.Array(instructions),
	)
	return scanRecipeRow(row)
}

const addFavoriteRecipe = `-- name: AddFavoriteRecipe :exec
INSERT INTO favorite_recipes (user_id, recipe_id)
VALUES ($1, $2)
ON CONFLICT (user_id, recipe_id) DO NOTHING`

type AddFavoriteRecipeParams struct {
	UserID   uuid.UUID
	RecipeID uuid.UUID
}

func (q *Queries) AddFavoriteRecipe(ctx context.Context, arg AddFavoriteRecipeParams) error {
	_, err := q.db.ExecContext(ctx, addFavoriteRecipe, arg.UserID, arg.RecipeID)
	return err
}

const removeFavoriteRecipe = `-- name: RemoveFavoriteRecipe :exec
DELETE FROM favorite_recipes WHERE user_id = $1 AND recipe_id = $2`

type RemoveFavoriteRecipeParams struct {
	UserID   uuid.UUID
	RecipeID uuid.UUID
}

func (q *Queries) RemoveFavoriteRecipe(ctx context.Context, arg RemoveFavoriteRecipeParams) error {
	_, err := q.db.ExecContext(ctx, removeFavoriteRecipe, arg.UserID, arg.RecipeID)
	return err
}

const countUserRecipes = `-- name: CountUserRecipes :one
SELECT COUNT(*) FROM recipes WHERE user_id IS NOT NULL`

func (q *Queries) CountUserRecipes(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUserRecipes)
	var count int64
	err := row.Scan(&count)
	return count, err
}
