package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Not configurable at runtime so it cannot be weakened by accident.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// The token is hex-encoded to 64 characters for transmission.
	SessionTokenBytes = 32

	// DefaultSessionDuration is used when no duration is configured. Mobile
	// clients stay signed in for a month.
	DefaultSessionDuration = 30 * 24 * time.Hour

	// MinSessionDuration and MaxSessionDuration bound the configured duration.
	MinSessionDuration = 15 * time.Minute
	MaxSessionDuration = 90 * 24 * time.Hour

	// MinPasswordLength matches what the mobile client enforces.
	MinPasswordLength = 6

	// MaxPasswordLength is the bcrypt input limit.
	MaxPasswordLength = 72
)

// invalidSessionMessage is returned for every token failure so callers cannot
// tell a malformed token from an expired one.
const invalidSessionMessage = "Invalid or expired session"

// dummyHash is a bcrypt hash of "dummy", compared against on unknown emails
// so login takes the same time either way.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

var commonPasswords = map[string]struct{}{
	"123456":    {},
	"1234567":   {},
	"12345678":  {},
	"123456789": {},
	"111111":    {},
	"123123":    {},
	"qwerty":    {},
	"qwerty123": {},
	"password":  {},
	"password1": {},
	"abc123":    {},
	"iloveyou":  {},
	"йцукен":    {},
}

// =============================================================================
// Interface Definition
// =============================================================================

// UserService covers accounts, sessions and the user's own profile.
type UserService interface {
	// Register creates an account and signs it in.
	// Returns domain.ECONFLICT if the email is taken, domain.EINVALID for bad
	// input and domain.EFORBIDDEN while the operator has closed sign-ups.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.LoginResult, error)

	// Login authenticates a user and creates a new session.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetByID returns domain.ENOTFOUND if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken validates a bearer token and returns its user.
	// Returns domain.EUNAUTHORIZED if the token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// UpdateProfile applies a partial profile update.
	UpdateProfile(ctx context.Context, params domain.ProfileUpdateParams) (*domain.User, error)

	// CompleteOnboarding stores the questionnaire and the computed targets.
	CompleteOnboarding(ctx context.Context, params domain.OnboardingParams) (*domain.User, error)

	// UpdateAvatar replaces the avatar with an already processed image.
	UpdateAvatar(ctx context.Context, userID uuid.UUID, img *domain.Image) error

	// ChangePassword verifies the current password and signs out every session.
	ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error

	// Delete removes the account and everything it owns.
	Delete(ctx context.Context, userID uuid.UUID) error

	// DeleteExpiredSessions removes expired sessions and returns how many.
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// CheckVersion tells an unauthenticated client whether its release is
	// outdated.
	CheckVersion(ctx context.Context, clientVersion string) (*domain.VersionCheck, error)
}

// UserStore is the persistence needed by UserService.
type UserStore interface {
	CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
	UpdateUserProfile(ctx context.Context, arg repository.UpdateUserProfileParams) (repository.User, error)
	UpdateUserAvatar(ctx context.Context, arg repository.UpdateUserAvatarParams) error
	UpdateUserPassword(ctx context.Context, arg repository.UpdateUserPasswordParams) error
	DeleteUser(ctx context.Context, id uuid.UUID) (int64, error)

	CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (repository.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	GetAppSettings(ctx context.Context) (repository.AppSettings, error)
}

// UserServiceConfig holds tunables for UserService.
type UserServiceConfig struct {
	// SessionDuration is clamped to [MinSessionDuration, MaxSessionDuration];
	// zero means DefaultSessionDuration.
	SessionDuration time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	store           UserStore
	sessionDuration time.Duration
	clock           Clock
	logger          *slog.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance.
func NewUserService(store UserStore, cfg UserServiceConfig, clock Clock, logger *slog.Logger) UserService {
	return &userService{
		store:           store,
		sessionDuration: normalizeSessionDuration(cfg.SessionDuration),
		clock:           clockOrNow(clock),
		logger:          logger,
	}
}

func normalizeSessionDuration(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultSessionDuration
	case d < MinSessionDuration:
		return MinSessionDuration
	case d > MaxSessionDuration:
		return MaxSessionDuration
	}
	return d
}

// =============================================================================
// Register / Login / Logout
// =============================================================================

// Register creates a new user account and its first session.
//
// The password is hashed even when the email is taken so the response time
// does not reveal which emails are registered.
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.LoginResult, error) {
	const op = "UserService.Register"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Invalid(op, domain.ErrorMessage(err))
	}
	if params.Name == "" {
		return nil, domain.Invalid(op, "Name is required")
	}
	if err := validatePassword(op, "password", params.Password); err != nil {
		return nil, err
	}

	settings, err := s.store.GetAppSettings(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load settings")
	}
	if !settings.RegistrationEnabled {
		return nil, domain.Forbidden(op, "Registration is temporarily disabled")
	}

	_, err = s.store.GetUserByEmail(ctx, params.Email)
	if err == nil {
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.store.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
		Name:         params.Name,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	result, err := s.startSession(ctx, op, repoUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", repoUser.ID, "email", repoUser.Email)
	return result, nil
}

// Login authenticates a user and creates a new session.
//
// Unknown emails and wrong passwords produce the same error and take the
// same time.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	result, err := s.startSession(ctx, op, repoUser)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", repoUser.ID)
	return result, nil
}

func (s *userService) startSession(ctx context.Context, op string, repoUser repository.User) (*domain.LoginResult, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate session token")
	}

	expiresAt := s.clock().Add(s.sessionDuration)
	_, err = s.store.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    repoUser.ID,
		TokenHash: hashSessionToken(token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	// Only the raw token leaves the service; the store keeps its hash.
	return &domain.LoginResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout invalidates a session. Malformed or unknown tokens are not an error.
func (s *userService) Logout(ctx context.Context, token string) error {
	if len(token) != SessionTokenBytes*2 {
		return nil
	}

	if err := s.store.DeleteSession(ctx, hashSessionToken(token)); err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to delete session", "error", err)
	}

	s.logger.Debug("session invalidated")
	return nil
}

// =============================================================================
// Lookups
// =============================================================================

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// GetBySessionToken hashes the token and looks up a live session.
// Expired sessions are filtered by the query itself.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	if len(token) != SessionTokenBytes*2 {
		return nil, domain.Unauthorized(op, invalidSessionMessage)
	}

	session, err := s.store.GetSessionByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, invalidSessionMessage)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	repoUser, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, invalidSessionMessage)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// =============================================================================
// Profile
// =============================================================================

func (s *userService) UpdateProfile(ctx context.Context, params domain.ProfileUpdateParams) (*domain.User, error) {
	const op = "UserService.UpdateProfile"

	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		params.Name = &trimmed
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	name, profile := params.Apply(user.Name, user.Profile)
	updated, err := s.store.UpdateUserProfile(ctx, profileParams(user, name, profile))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", params.UserID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update profile")
	}

	s.logger.Info("user profile updated", "user_id", params.UserID)

	out := repoUserToDomain(updated)
	out.PasswordHash = ""
	return out, nil
}

func (s *userService) CompleteOnboarding(ctx context.Context, params domain.OnboardingParams) (*domain.User, error) {
	const op = "UserService.CompleteOnboarding"

	if err := params.Validate(); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	profile := params.Apply(user.Profile)
	updated, err := s.store.UpdateUserProfile(ctx, profileParams(user, user.Name, profile))
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to save onboarding")
	}

	s.logger.Info("onboarding completed",
		"user_id", params.UserID,
		"daily_calories", profile.DailyCalories,
	)

	out := repoUserToDomain(updated)
	out.PasswordHash = ""
	return out, nil
}

func (s *userService) UpdateAvatar(ctx context.Context, userID uuid.UUID, img *domain.Image) error {
	const op = "UserService.UpdateAvatar"

	if img.IsEmpty() {
		return domain.Invalid(op, "Avatar image is required")
	}

	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}

	data, contentType := imageColumns(img)
	if err := s.store.UpdateUserAvatar(ctx, repository.UpdateUserAvatarParams{
		ID:                userID,
		Avatar:            data,
		AvatarContentType: contentType,
	}); err != nil {
		return domain.Internal(err, op, "Failed to save avatar")
	}

	s.logger.Info("avatar updated", "user_id", userID, "bytes", len(data))
	return nil
}

// ChangePassword changes a user's password and invalidates every session,
// forcing re-authentication everywhere.
func (s *userService) ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error {
	const op = "UserService.ChangePassword"

	if params.CurrentPassword == "" || params.NewPassword == "" {
		return domain.Invalid(op, "Current and new password are required")
	}
	if err := validatePassword(op, "newPassword", params.NewPassword); err != nil {
		return err
	}

	repoUser, err := s.store.GetUserByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "user", params.UserID.String())
		}
		return domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(params.CurrentPassword)); err != nil {
		return domain.Unauthorized(op, "Current password is incorrect")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(params.NewPassword), BcryptCost)
	if err != nil {
		return domain.Internal(err, op, "Failed to hash new password")
	}

	if err := s.store.UpdateUserPassword(ctx, repository.UpdateUserPasswordParams{
		ID:           params.UserID,
		PasswordHash: string(newHash),
	}); err != nil {
		return domain.Internal(err, op, "Failed to update password")
	}

	if err := s.store.DeleteUserSessions(ctx, params.UserID); err != nil {
		// The password already changed; stale sessions expire on their own.
		s.logger.Warn("failed to delete user sessions after password change", "user_id", params.UserID, "error", err)
	}

	s.logger.Info("user password changed", "user_id", params.UserID)
	return nil
}

// Delete removes the user. Diary, favourites, recipes, water and sessions
// go with it through ON DELETE CASCADE.
func (s *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	const op = "UserService.Delete"

	n, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		return domain.Internal(err, op, "Failed to delete user")
	}
	if n == 0 {
		return domain.NotFound(op, "user", userID.String())
	}

	s.logger.Info("user deleted", "user_id", userID)
	return nil
}

func (s *userService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	const op = "UserService.DeleteExpiredSessions"

	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to delete expired sessions")
	}

	s.logger.Info("expired sessions cleaned up", "deleted", n)
	return n, nil
}

// =============================================================================
// Helpers
// =============================================================================

// generateSessionToken returns 32 random bytes as 64 hex characters.
func generateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashSessionToken creates a SHA-256 hash of a session token.
//
// Tokens are high-entropy random values, so a fast hash is sufficient; a
// leaked sessions table cannot be replayed.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// validateEmail validates an email address format.
//
// Checks:
// - Exactly one @, not at either end
// - A dot in the domain part
// - Length limit (RFC 5321: 254 chars max)
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}
	if len(email) > 254 {
		return domain.Invalid("", "Email must be 254 characters or less")
	}

	if strings.Count(email, "@") != 1 {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}
	atIndex := strings.IndexByte(email, '@')
	if atIndex == 0 {
		return domain.Invalid("", "Email cannot start with @")
	}
	if atIndex == len(email)-1 {
		return domain.Invalid("", "Email cannot end with @")
	}
	if !strings.Contains(email[atIndex+1:], ".") {
		return domain.Invalid("", "Email domain must contain a dot")
	}
	if strings.Contains(email, "..") {
		return domain.Invalid("", "Email cannot contain consecutive dots")
	}
	return nil
}

// validatePassword checks length in bytes, as bcrypt sees it, and rejects
// blank and well-known passwords. Failures are reported against field.
func validatePassword(op, field, password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return domain.NewValidationError(op, field, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	case len(password) > MaxPasswordLength:
		return domain.NewValidationError(op, field, fmt.Sprintf("Password must be %d bytes or less", MaxPasswordLength))
	case strings.TrimSpace(password) == "":
		return domain.NewValidationError(op, field, "Password cannot be blank")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return domain.NewValidationError(op, field, "Password is too common")
	}
	return nil
}

func (s *userService) CheckVersion(ctx context.Context, clientVersion string) (*domain.VersionCheck, error) {
	const op = "UserService.CheckVersion"

	if strings.TrimSpace(clientVersion) == "" {
		return nil, domain.NewValidationError(op, "currentVersion", "Client version is required")
	}
	row, err := s.store.GetAppSettings(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load settings")
	}
	check := repoSettingsToDomain(row).CheckVersion(clientVersion)
	return &check, nil
}
