// Package ai defines the boundary to the language models that estimate
// nutrition, write recipes and answer chat messages.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Provider Interface
// =============================================================================

// Provider is implemented by every model backend (OpenAI-compatible,
// Anthropic, mock). Implementations make exactly one upstream call per
// method; retries and timeouts are layered on by WithRetry.
type Provider interface {
	// AnalyzeFoodImage estimates the dish shown in a processed image.
	AnalyzeFoodImage(ctx context.Context, params FoodImageParams) (*FoodResult, error)

	// AnalyzeFoodText estimates a dish from a free-form description.
	AnalyzeFoodText(ctx context.Context, params FoodTextParams) (*FoodResult, error)

	// GenerateRecipe writes a recipe for a dish name, optionally guided by a photo.
	GenerateRecipe(ctx context.Context, params RecipeParams) (*RecipeResult, error)

	// Chat answers a user message given the system prompt and recent history.
	Chat(ctx context.Context, params ChatParams) (*ChatResult, error)
}

// =============================================================================
// Parameters and Results
// =============================================================================

// FoodImageParams contains the inputs for photo analysis.
type FoodImageParams struct {
	UserID uuid.UUID
	Image  domain.Image
	// NameHint is the user's own name for the dish, if they gave one.
	NameHint string
}

// FoodTextParams contains the inputs for description analysis.
type FoodTextParams struct {
	UserID      uuid.UUID
	Description string
}

// RecipeParams contains the inputs for recipe generation.
type RecipeParams struct {
	UserID    uuid.UUID
	DishName  string
	Goal      string
	Allergies []string
	Image     *domain.Image
}

// ChatParams contains a fully assembled conversation.
type ChatParams struct {
	UserID  uuid.UUID
	System  string
	History []domain.ChatMessage
	Message string
	Image   *domain.Image
}

// FoodResult is a parsed nutrition estimate.
type FoodResult struct {
	Analysis domain.FoodAnalysis
	Usage    UsageInfo
}

// RecipeResult is a parsed, not yet normalized, recipe.
type RecipeResult struct {
	Recipe domain.GeneratedRecipe
	Usage  UsageInfo
}

// ChatResult is the assistant's reply.
type ChatResult struct {
	Reply string
	Usage UsageInfo
}

// UsageInfo records token consumption for one call.
type UsageInfo struct {
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// =============================================================================
// Provider Configuration
// =============================================================================

// ProviderConfig contains the retry policy applied around a provider.
type ProviderConfig struct {
	// MaxRetries is the total number of attempts per call.
	MaxRetries int

	// RetryBaseDelay is multiplied by the attempt number between attempts.
	RetryBaseDelay time.Duration

	// RequestTimeout bounds a single attempt.
	RequestTimeout time.Duration
}

// DefaultProviderConfig returns 3 attempts, 2s linear backoff, 60s per attempt.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
		RequestTimeout: 60 * time.Second,
	}
}

func (c ProviderConfig) withDefaults() ProviderConfig {
	d := DefaultProviderConfig()
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = d.RetryBaseDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}

// =============================================================================
// Error Types
// =============================================================================

var (
	// EAIRateLimit indicates the provider is throttling this API key.
	EAIRateLimit = errors.New("AI provider rate limit exceeded")

	// EAIOverloaded indicates the provider reported it is overloaded (503/529).
	EAIOverloaded = errors.New("AI provider overloaded")

	// EAIInvalidImage indicates the provider rejected the image.
	EAIInvalidImage = errors.New("invalid image for AI analysis")

	// EAIContentPolicy indicates the request violated the provider's policy.
	EAIContentPolicy = errors.New("content policy violation")

	// EAITimeout indicates the attempt ran out of time.
	EAITimeout = errors.New("AI request timeout")

	// EAIUnavailable indicates a network failure or a 5xx other than overload.
	EAIUnavailable = errors.New("AI service unavailable")

	// EAIUnauthorized indicates the API key was rejected.
	EAIUnauthorized = errors.New("AI provider authentication failed")

	// EAIInvalidResponse indicates the model's answer could not be parsed.
	EAIInvalidResponse = errors.New("AI provider returned an unreadable response")
)

// IsRetryable reports whether another attempt may succeed. Only overload
// signals are retried.
func IsRetryable(err error) bool {
	return errors.Is(err, EAIOverloaded) || errors.Is(err, EAIRateLimit)
}

// IsUpstream reports whether the failure is the provider's availability
// rather than a bug or a bad request.
func IsUpstream(err error) bool {
	return IsRetryable(err) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
