package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countFunc func(ctx context.Context) (int64, error)

func (f countFunc) ReconcileAll(ctx context.Context) (int64, error)          { return f(ctx) }
func (f countFunc) ExpireAll(ctx context.Context) (int64, error)             { return f(ctx) }
func (f countFunc) DeleteExpiredSessions(ctx context.Context) (int64, error) { return f(ctx) }

func TestSweepHandlers(t *testing.T) {
	transient := errors.New("connection reset")

	build := map[string]func(countFunc) worker.JobHandler{
		worker.JobTypeReconcileStreaks: func(f countFunc) worker.JobHandler {
			return NewReconcileStreaksHandler(f, discardLogger())
		},
		worker.JobTypeExpireSubscriptions: func(f countFunc) worker.JobHandler {
			return NewExpireSubscriptionsHandler(f, discardLogger())
		},
		worker.JobTypeCleanupSessions: func(f countFunc) worker.JobHandler {
			return NewCleanupSessionsHandler(f, discardLogger())
		},
	}

	tests := []struct {
		name          string
		payload       string
		result        error
		wantCalled    bool
		wantErr       bool
		wantPermanent bool
	}{
		{name: "runs the sweep", payload: `{"reason":"startup"}`, wantCalled: true},
		{name: "empty payload is accepted", payload: ``, wantCalled: true},
		{name: "malformed payload fails permanently", payload: `{`, wantErr: true, wantPermanent: true},
		{name: "store failure is retried", payload: `{}`, result: transient, wantCalled: true, wantErr: true},
		{
			name:          "invalid input fails permanently",
			payload:       `{}`,
			result:        domain.Invalid("test", "bad"),
			wantCalled:    true,
			wantErr:       true,
			wantPermanent: true,
		},
	}

	for jobType, newHandler := range build {
		for _, tt := range tests {
			t.Run(jobType+"/"+tt.name, func(t *testing.T) {
				called := false
				h := newHandler(func(context.Context) (int64, error) {
					called = true
					return 3, tt.result
				})
				assert.Equal(t, jobType, h.Type())

				err := h.Handle(context.Background(), []byte(tt.payload))

				assert.Equal(t, tt.wantCalled, called)
				if !tt.wantErr {
					assert.NoError(t, err)
					return
				}
				require.Error(t, err)
				assert.Equal(t, tt.wantPermanent, worker.IsPermanent(err))
			})
		}
	}
}

type fakeJobStore struct {
	before time.Time
	n      int64
	err    error
}

func (s *fakeJobStore) DeleteFinishedJobs(_ context.Context, before time.Time) (int64, error) {
	s.before = before
	return s.n, s.err
}

func TestPurgeJobsHandler(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("uses the retention cutoff", func(t *testing.T) {
		store := &fakeJobStore{n: 12}
		h := NewPurgeJobsHandler(store, 48*time.Hour, discardLogger())
		h.now = func() time.Time { return now }

		require.NoError(t, h.Handle(context.Background(), nil))
		assert.Equal(t, now.Add(-48*time.Hour), store.before)
		assert.Equal(t, worker.JobTypePurgeJobs, h.Type())
	})

	t.Run("defaults the retention", func(t *testing.T) {
		store := &fakeJobStore{}
		h := NewPurgeJobsHandler(store, 0, discardLogger())
		h.now = func() time.Time { return now }

		require.NoError(t, h.Handle(context.Background(), []byte(`{}`)))
		assert.Equal(t, now.Add(-DefaultJobRetention), store.before)
	})

	t.Run("store error is returned", func(t *testing.T) {
		h := NewPurgeJobsHandler(&fakeJobStore{err: errors.New("down")}, time.Hour, discardLogger())
		err := h.Handle(context.Background(), nil)
		require.Error(t, err)
		assert.False(t, worker.IsPermanent(err))
	})
}
