package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type User struct {
	ID                    uuid.UUID
	Email                 string
	PasswordHash          string
	Name                  string
	Avatar                []byte
	AvatarContentType     sql.NullString
	SubscriptionType      string
	SubscriptionExpiresAt sql.NullTime
	UsageDate             sql.NullString
	UsagePhotos           int32
	UsageMessages         int32
	UsageRecipes          int32
	StreakCurrent         int32
	StreakLongest         int32
	StreakLastVisit       sql.NullTime
	Goal                  sql.NullString
	Gender                sql.NullString
	Age                   sql.NullInt32
	HeightCm              sql.NullFloat64
	WeightKg              sql.NullFloat64
	TargetWeightKg        sql.NullFloat64
	ActivityLevel         sql.NullString
	Allergies             []string
	DailyCalories         int32
	ProteinTarget         int32
	FatTarget             int32
	CarbsTarget           int32
	WaterTargetMl         int32
	OnboardingCompleted   bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type FoodEntry struct {
	ID               uuid.UUID
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
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type FavoriteFood struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Calories  int32
	Protein   float64
	Fat       float64
	Carbs     float64
	CreatedAt time.Time
}

type WaterIntake struct {
	UserID    uuid.UUID
	Date      string
	AmountMl  int32
	UpdatedAt time.Time
}

type Recipe struct {
	ID               uuid.UUID
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
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      []byte
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ErrorMessage sql.NullString
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	CreatedAt    time.Time
}

type AppSettings struct {
	RegistrationEnabled bool
	CurrentVersion      string
	UpdateDescription   string
	HasUpdate           bool
	UpdatedAt           time.Time
}
