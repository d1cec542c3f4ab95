package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
)

type limitFixture struct {
	store  *memStore
	clock  *fakeClock
	usage  UsageService
	limits LimitService
}

func newLimitFixture() *limitFixture {
	clock := newFakeClock(localTime(2025, 6, 1, 14, 0))
	store := newMemStore(clock.Now)
	cal := testCalendar()
	subs := NewSubscriptionService(store, cal, clock.Now, testLogger())
	usage := NewUsageService(store, cal, clock.Now, testLogger())
	return &limitFixture{
		store:  store,
		clock:  clock,
		usage:  usage,
		limits: NewLimitService(store, subs, usage, testLogger()),
	}
}

func TestLimitService_Check_FreePhotos(t *testing.T) {
	ctx := context.Background()
	f := newLimitFixture()
	seeded := f.store.seedUser(nil)

	for i := 0; i < 2; i++ {
		info, err := f.limits.Check(ctx, seeded.ID, domain.UsagePhotos)
		require.NoError(t, err)
		assert.Equal(t, i, info.Current)
		assert.Equal(t, 2, info.Max)
		assert.False(t, info.IsPro)

		_, err = f.usage.Increment(ctx, seeded.ID, domain.UsagePhotos)
		require.NoError(t, err)
	}

	_, err := f.limits.Check(ctx, seeded.ID, domain.UsagePhotos)
	require.Error(t, err)
	assert.Equal(t, domain.ELIMIT, domain.ErrorCode(err))
	assert.Equal(t, map[string]any{
		"limitType": "photos",
		"current":   2,
		"max":       2,
		"isPro":     false,
	}, domain.ErrorDetails(err))

	// Other kinds keep their own allowance.
	_, err = f.limits.Check(ctx, seeded.ID, domain.UsageMessages)
	assert.NoError(t, err)

	// A new local day starts from zero.
	f.clock.Advance(12 * time.Hour)
	info, err := f.limits.Check(ctx, seeded.ID, domain.UsagePhotos)
	require.NoError(t, err)
	assert.Zero(t, info.Current)
}

func TestLimitService_Check_ExpiredProUsesFreeLimits(t *testing.T) {
	ctx := context.Background()
	f := newLimitFixture()
	seeded := f.store.seedUser(func(u *repository.User) {
		u.SubscriptionType = string(domain.SubscriptionPro)
		u.SubscriptionExpiresAt = sql.NullTime{Time: f.clock.Now().Add(-time.Minute), Valid: true}
		u.UsageDate = sql.NullString{String: "2025-06-01", Valid: true}
		u.UsageRecipes = 1
	})

	_, err := f.limits.Check(ctx, seeded.ID, domain.UsageRecipes)
	require.Error(t, err)
	assert.Equal(t, domain.ELIMIT, domain.ErrorCode(err))
	assert.Equal(t, false, domain.ErrorDetails(err)["isPro"])
	assert.Equal(t, string(domain.SubscriptionFree), f.store.user(seeded.ID).SubscriptionType)
}

func TestLimitService_Check_Pro(t *testing.T) {
	ctx := context.Background()
	f := newLimitFixture()
	seeded := f.store.seedUser(func(u *repository.User) {
		u.SubscriptionType = string(domain.SubscriptionPro)
		u.UsageDate = sql.NullString{String: "2025-06-01", Valid: true}
		u.UsagePhotos = 49
	})

	info, err := f.limits.Check(ctx, seeded.ID, domain.UsagePhotos)
	require.NoError(t, err)
	assert.True(t, info.IsPro)
	assert.Equal(t, 1, info.Remaining())
}

func TestLimitService_Check_Errors(t *testing.T) {
	ctx := context.Background()
	f := newLimitFixture()
	seeded := f.store.seedUser(nil)

	_, err := f.limits.Check(ctx, seeded.ID, domain.UsageKind("bogus"))
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = f.limits.Check(ctx, uuid.New(), domain.UsagePhotos)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestLimitService_RequirePro(t *testing.T) {
	ctx := context.Background()
	f := newLimitFixture()

	free := f.store.seedUser(nil)
	_, err := f.limits.RequirePro(ctx, free.ID)
	require.Error(t, err)
	assert.Equal(t, domain.EPRO, domain.ErrorCode(err))
	assert.Equal(t, true, domain.ErrorDetails(err)["requiresPro"])

	pro := f.store.seedUser(func(u *repository.User) {
		u.SubscriptionType = string(domain.SubscriptionPro)
	})
	user, err := f.limits.RequirePro(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
}

func TestLimitService_Summary(t *testing.T) {
	ctx := context.Background()
	f := newLimitFixture()
	expires := localTime(2025, 6, 8, 0, 0)
	seeded := f.store.seedUser(func(u *repository.User) {
		u.SubscriptionType = string(domain.SubscriptionPro)
		u.SubscriptionExpiresAt = sql.NullTime{Time: expires, Valid: true}
		u.UsageDate = sql.NullString{String: "2025-06-01", Valid: true}
		u.UsagePhotos = 3
		u.UsageMessages = 100
	})

	summary, err := f.limits.Summary(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionPro, summary.Subscription.Type)
	assert.Equal(t, 7, summary.RemainingDays)
	assert.Equal(t, "2025-06-01", summary.Date)
	require.NotNil(t, summary.Subscription.ExpiresAt)
	assert.True(t, expires.Equal(*summary.Subscription.ExpiresAt))

	assert.Equal(t, domain.KindLimit{Current: 3, Max: 50, Remaining: 47}, summary.Usage[domain.UsagePhotos])
	assert.Equal(t, domain.KindLimit{Current: 100, Max: 100, Remaining: 0}, summary.Usage[domain.UsageMessages])
	assert.Equal(t, domain.KindLimit{Current: 0, Max: 30, Remaining: 30}, summary.Usage[domain.UsageRecipes])
}
