package service

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crlx1q/Tester-FLAI/internal/ai/mock"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
)

// testZone is UTC+5, the default deployment zone.
var testZone = time.FixedZone("ALMT", 5*60*60)

func testCalendar() *domain.Calendar {
	return domain.NewCalendarIn(testZone)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable Clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Set(t time.Time)         { c.t = t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// localTime builds a wall-clock time in testZone.
func localTime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, testZone)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// fixture wires the metered services over one memStore and a mock provider.
type fixture struct {
	store    *memStore
	clock    *fakeClock
	cal      *domain.Calendar
	provider *mock.Provider

	usage   UsageService
	streaks StreakService
	meter   *Meter
	food    FoodService
	recipes RecipeService
	chat    ChatService
}

func newFixture(now time.Time) *fixture {
	clock := newFakeClock(now)
	store := newMemStore(clock.Now)
	cal := testCalendar()
	logger := testLogger()
	provider := mock.New(logger)

	usage := NewUsageService(store, cal, clock.Now, logger)
	streaks := NewStreakService(store, cal, clock.Now, logger)
	meter := NewMeter(usage, streaks, logger)

	return &fixture{
		store:    store,
		clock:    clock,
		cal:      cal,
		provider: provider,
		usage:    usage,
		streaks:  streaks,
		meter:    meter,
		food:     NewFoodService(store, provider, meter, cal, clock.Now, logger),
		recipes:  NewRecipeService(store, provider, meter, logger),
		chat:     NewChatService(store, provider, meter, cal, clock.Now, logger),
	}
}

// usageOf returns today's bucket as stored.
func (f *fixture) usageOf(id uuid.UUID) domain.UsageBucket {
	return f.usage.Current(repoUserToDomain(f.store.user(id)))
}

func testImage() *domain.Image {
	return &domain.Image{Data: []byte{0xff, 0xd8, 0xff, 0xe0}, ContentType: domain.OutputContentType, Width: 10, Height: 10}
}
