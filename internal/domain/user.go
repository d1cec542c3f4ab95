// Package domain contains core business types and interfaces.
//
// This file defines the User domain type and related types for authentication
// and profile management. These types are separate from the repository models
// so the domain layer stays decoupled from the database layer.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
//
// It differs from repository.User in that:
// - It groups the subscription, usage and streak columns into value types
// - It uses proper Go types instead of sql.Null* types where appropriate
// - The avatar is exposed as an Image rather than raw columns
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	Name         string
	Avatar       *Image
	Subscription Subscription
	Usage        UsageBucket
	Streak       Streak
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Profile holds the nutrition targets and body metrics of a user.
type Profile struct {
	Goal                string
	Gender              string
	Age                 int
	HeightCm            float64
	WeightKg            float64
	TargetWeightKg      float64
	ActivityLevel       string
	Allergies           []string
	DailyCalories       int
	ProteinTarget       int
	FatTarget           int
	CarbsTarget         int
	WaterTargetMl       int
	OnboardingCompleted bool
}

// Default targets applied to new accounts.
const (
	DefaultDailyCalories = 2000
	DefaultProteinTarget = 150
	DefaultFatTarget     = 65
	DefaultCarbsTarget   = 250
	DefaultWaterTargetMl = 2000
)

// Session represents an authenticated session.
//
// Sessions are stored in the database with a hashed token.
// The raw token is only given to the client once (at login).
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RegisterParams contains the validated parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string // Raw password, will be hashed by service
	Name     string
}

// LoginResult contains the result of a successful login.
type LoginResult struct {
	User      *User
	Token     string // Raw session token (not hashed) - only returned once
	ExpiresAt time.Time
}

// PasswordChangeParams contains parameters for changing a user's password.
type PasswordChangeParams struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ProfileUpdateParams contains a partial profile update. Nil fields are left unchanged.
type ProfileUpdateParams struct {
	UserID         uuid.UUID
	Name           *string
	Goal           *string
	Gender         *string
	Age            *int
	HeightCm       *float64
	WeightKg       *float64
	TargetWeightKg *float64
	ActivityLevel  *string
	Allergies      []string
	DailyCalories  *int
	ProteinTarget  *int
	FatTarget      *int
	CarbsTarget    *int
	WaterTargetMl  *int
}

// Apply returns p with every non-nil field of the update applied.
func (params ProfileUpdateParams) Apply(name string, p Profile) (string, Profile) {
	if params.Name != nil {
		name = *params.Name
	}
	if params.Goal != nil {
		p.Goal = *params.Goal
	}
	if params.Gender != nil {
		p.Gender = *params.Gender
	}
	if params.Age != nil {
		p.Age = *params.Age
	}
	if params.HeightCm != nil {
		p.HeightCm = *params.HeightCm
	}
	if params.WeightKg != nil {
		p.WeightKg = *params.WeightKg
	}
	if params.TargetWeightKg != nil {
		p.TargetWeightKg = *params.TargetWeightKg
	}
	if params.ActivityLevel != nil {
		p.ActivityLevel = *params.ActivityLevel
	}
	if params.Allergies != nil {
		p.Allergies = params.Allergies
	}
	if params.DailyCalories != nil {
		p.DailyCalories = *params.DailyCalories
	}
	if params.ProteinTarget != nil {
		p.ProteinTarget = *params.ProteinTarget
	}
	if params.FatTarget != nil {
		p.FatTarget = *params.FatTarget
	}
	if params.CarbsTarget != nil {
		p.CarbsTarget = *params.CarbsTarget
	}
	if params.WaterTargetMl != nil {
		p.WaterTargetMl = *params.WaterTargetMl
	}
	return name, p
}

// Validate checks ranges of the supplied fields.
func (params ProfileUpdateParams) Validate() error {
	const op = "profile.validate"

	var ve *ValidationError
	add := func(field, msg string) {
		if ve == nil {
			ve = NewValidationError(op, field, msg)
			return
		}
		ve.Fields[field] = msg
	}

	if params.Name != nil && *params.Name == "" {
		add("name", "Name cannot be empty")
	}
	if params.Age != nil && (*params.Age < 1 || *params.Age > 120) {
		add("age", "Age must be between 1 and 120")
	}
	if params.HeightCm != nil && (*params.HeightCm < 50 || *params.HeightCm > 300) {
		add("heightCm", "Height must be between 50 and 300 cm")
	}
	if params.WeightKg != nil && (*params.WeightKg < 20 || *params.WeightKg > 500) {
		add("weightKg", "Weight must be between 20 and 500 kg")
	}
	if params.TargetWeightKg != nil && (*params.TargetWeightKg < 20 || *params.TargetWeightKg > 500) {
		add("targetWeightKg", "Target weight must be between 20 and 500 kg")
	}
	if params.DailyCalories != nil && (*params.DailyCalories < 500 || *params.DailyCalories > 10000) {
		add("dailyCalories", "Daily calories must be between 500 and 10000")
	}
	for field, v := range map[string]*int{"proteinTarget": params.ProteinTarget, "fatTarget": params.FatTarget, "carbsTarget": params.CarbsTarget, "waterTargetMl": params.WaterTargetMl} {
		if v != nil && *v < 0 {
			add(field, "Must not be negative")
		}
	}

	if ve != nil {
		return ve
	}
	return nil
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

// NullInt32Value safely extracts an int from sql.NullInt32.
func NullInt32Value(ni sql.NullInt32) int {
	if ni.Valid {
		return int(ni.Int32)
	}
	return 0
}

// NullFloat64Value safely extracts a float from sql.NullFloat64.
func NullFloat64Value(nf sql.NullFloat64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return 0
}

// ToNullString converts an empty string to an invalid sql.NullString.
func ToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ToNullTime converts a nil pointer to an invalid sql.NullTime.
func ToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// ToNullInt32 converts zero to an invalid sql.NullInt32.
func ToNullInt32(v int) sql.NullInt32 {
	return sql.NullInt32{Int32: int32(v), Valid: v != 0}
}

// ToNullFloat64 converts zero to an invalid sql.NullFloat64.
func ToNullFloat64(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}
