package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/auth"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/handler"
	"github.com/crlx1q/Tester-FLAI/internal/service"
)

// =============================================================================
// Limit Gate
// =============================================================================

// LimitMiddleware gates metered and pro-only routes.
type LimitMiddleware struct {
	limits service.LimitService
	logger *slog.Logger
}

// NewLimitMiddleware creates a new limit middleware.
func NewLimitMiddleware(limits service.LimitService, logger *slog.Logger) *LimitMiddleware {
	return &LimitMiddleware{limits: limits, logger: logger}
}

// Require rejects the request with limit_reached when today's allowance of
// kind is spent, and otherwise attaches the allowance to the context.
// Must run after RequireUser.
func (m *LimitMiddleware) Require(kind domain.UsageKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.GetUser(r.Context())
			if user == nil {
				handler.UnauthorizedResponse(w, r, m.logger)
				return
			}

			info, err := m.limits.Check(r.Context(), user.ID, kind)
			if err != nil {
				handler.ErrorResponse(w, r, m.logger, err)
				return
			}

			// the check may have downgraded a lapsed plan
			user.Subscription.Type = info.SubscriptionType
			if !info.IsPro {
				user.Subscription.ExpiresAt = nil
			}
			next.ServeHTTP(w, r.WithContext(auth.SetLimitInfo(r.Context(), info)))
		})
	}
}

// RequirePro rejects users without an active pro plan with requires_pro.
func (m *LimitMiddleware) RequirePro(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		fresh, err := m.limits.RequirePro(r.Context(), user.ID)
		if err != nil {
			handler.ErrorResponse(w, r, m.logger, err)
			return
		}

		user.Subscription = fresh.Subscription
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Per-User Serialisation
// =============================================================================

// UserLocks runs at most one metered request per user at a time, so the
// check-then-increment of the limit gate cannot be raced by parallel requests
// from the same account.
type UserLocks struct {
	mu     sync.Mutex
	locks  map[uuid.UUID]*userLock
	logger *slog.Logger
}

// StatusClientClosedRequest is written when the caller disconnects while
// its request is still queued (nginx's 499).
const StatusClientClosedRequest = 499

type userLock struct {
	sem  chan struct{}
	refs int
}

// NewUserLocks creates an empty lock table.
func NewUserLocks(logger *slog.Logger) *UserLocks {
	return &UserLocks{locks: make(map[uuid.UUID]*userLock), logger: logger}
}

// Lock blocks until the user's lock is held or ctx is done. The returned
// function releases it.
func (l *UserLocks) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{sem: make(chan struct{}, 1)}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
		return func() {
			<-lock.sem
			l.release(userID, lock)
		}, nil
	case <-ctx.Done():
		l.release(userID, lock)
		return nil, ctx.Err()
	}
}

func (l *UserLocks) release(userID uuid.UUID, lock *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, userID)
	}
}

// Len reports how many users currently hold or wait for a lock.
func (l *UserLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Handler serialises requests of the authenticated user.
func (l *UserLocks) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := auth.GetUser(r.Context())
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		unlock, err := l.Lock(r.Context(), user.ID)
		if err != nil {
			l.logger.Debug("client closed request while queued",
				"user_id", user.ID,
				"path", r.URL.Path,
				"error", err,
			)
			w.WriteHeader(StatusClientClosedRequest)
			return
		}
		defer unlock()

		next.ServeHTTP(w, r)
	})
}
