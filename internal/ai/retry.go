package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/crlx1q/Tester-FLAI/internal/metrics"
)

// Operation names used in logs and metrics.
const (
	OpAnalyzeFoodImage = "analyze_food_image"
	OpAnalyzeFoodText  = "analyze_food_text"
	OpGenerateRecipe   = "generate_recipe"
	OpChat             = "chat"
)

// retryingProvider decorates a Provider with the timeout and retry policy.
type retryingProvider struct {
	next   Provider
	config ProviderConfig
	logger *slog.Logger
}

// WithRetry wraps p. Calls ignore the caller's cancellation, each attempt
// gets RequestTimeout, and overload errors are retried up to MaxRetries
// attempts with a delay of RetryBaseDelay * attempt.
func WithRetry(p Provider, config ProviderConfig, logger *slog.Logger) Provider {
	return &retryingProvider{
		next:   p,
		config: config.withDefaults(),
		logger: logger,
	}
}

func (r *retryingProvider) AnalyzeFoodImage(ctx context.Context, params FoodImageParams) (*FoodResult, error) {
	res, err := call(ctx, r, OpAnalyzeFoodImage, func(ctx context.Context) (*FoodResult, error) {
		return r.next.AnalyzeFoodImage(ctx, params)
	})
	if res != nil {
		recordUsage(res.Usage)
	}
	return res, err
}

func (r *retryingProvider) AnalyzeFoodText(ctx context.Context, params FoodTextParams) (*FoodResult, error) {
	res, err := call(ctx, r, OpAnalyzeFoodText, func(ctx context.Context) (*FoodResult, error) {
		return r.next.AnalyzeFoodText(ctx, params)
	})
	if res != nil {
		recordUsage(res.Usage)
	}
	return res, err
}

func (r *retryingProvider) GenerateRecipe(ctx context.Context, params RecipeParams) (*RecipeResult, error) {
	res, err := call(ctx, r, OpGenerateRecipe, func(ctx context.Context) (*RecipeResult, error) {
		return r.next.GenerateRecipe(ctx, params)
	})
	if res != nil {
		recordUsage(res.Usage)
	}
	return res, err
}

func (r *retryingProvider) Chat(ctx context.Context, params ChatParams) (*ChatResult, error) {
	res, err := call(ctx, r, OpChat, func(ctx context.Context) (*ChatResult, error) {
		return r.next.Chat(ctx, params)
	})
	if res != nil {
		recordUsage(res.Usage)
	}
	return res, err
}

func call[T any](ctx context.Context, r *retryingProvider, op string, fn func(context.Context) (T, error)) (T, error) {
	detached := context.WithoutCancel(ctx)
	base := r.config.RetryBaseDelay

	result, err := retry.DoWithData(
		func() (T, error) {
			attemptCtx, cancel := context.WithTimeout(detached, r.config.RequestTimeout)
			defer cancel()

			res, err := fn(attemptCtx)
			if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, EAITimeout) {
				err = WrapError(op, errors.Join(EAITimeout, err))
			}
			return res, err
		},
		retry.Context(detached),
		retry.Attempts(uint(r.config.MaxRetries)),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return base * time.Duration(n+1)
		}),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("AI provider overloaded, retrying",
				"operation", op,
				"attempt", n+1,
				"delay", base*time.Duration(n+1),
				"error", err,
			)
		}),
	)

	switch {
	case err == nil:
		metrics.AIAPICalls.WithLabelValues(op, "ok").Inc()
	case IsUpstream(err):
		metrics.AIAPICalls.WithLabelValues(op, "unavailable").Inc()
	default:
		metrics.AIAPICalls.WithLabelValues(op, "error").Inc()
	}
	return result, err
}

func recordUsage(u UsageInfo) {
	if u.InputTokens > 0 {
		metrics.AITokensTotal.WithLabelValues("input").Add(float64(u.InputTokens))
	}
	if u.OutputTokens > 0 {
		metrics.AITokensTotal.WithLabelValues("output").Add(float64(u.OutputTokens))
	}
}
