package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentUsage(t *testing.T) {
	tests := []struct {
		name   string
		bucket UsageBucket
		today  string
		want   UsageBucket
	}{
		{
			name:   "bucket from today is trusted",
			bucket: UsageBucket{Date: "2025-03-10", PhotosCount: 2, MessagesCount: 5, RecipesCount: 1},
			today:  "2025-03-10",
			want:   UsageBucket{Date: "2025-03-10", PhotosCount: 2, MessagesCount: 5, RecipesCount: 1},
		},
		{
			name:   "stale bucket reads as zero",
			bucket: UsageBucket{Date: "2025-03-09", PhotosCount: 2, MessagesCount: 5, RecipesCount: 1},
			today:  "2025-03-10",
			want:   UsageBucket{Date: "2025-03-10"},
		},
		{
			name:   "never used",
			bucket: UsageBucket{},
			today:  "2025-03-10",
			want:   UsageBucket{Date: "2025-03-10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentUsage(tt.bucket, tt.today))
		})
	}
}

func TestUsageBucket_Increment(t *testing.T) {
	const today = "2025-03-10"

	for _, kind := range UsageKinds {
		t.Run(string(kind), func(t *testing.T) {
			before := UsageBucket{Date: today, PhotosCount: 1, MessagesCount: 3, RecipesCount: 0}

			after, err := before.Increment(kind, today)
			require.NoError(t, err)

			current := CurrentUsage(after, today)
			for _, other := range UsageKinds {
				want := before.Count(other)
				if other == kind {
					want++
				}
				assert.Equal(t, want, current.Count(other), "counter %s", other)
			}
		})
	}
}

func TestUsageBucket_IncrementResetsStaleBucket(t *testing.T) {
	stale := UsageBucket{Date: "2025-03-09", PhotosCount: 2, MessagesCount: 10, RecipesCount: 1}

	got, err := stale.Increment(UsageMessages, "2025-03-10")

	require.NoError(t, err)
	assert.Equal(t, UsageBucket{Date: "2025-03-10", MessagesCount: 1}, got)
}

func TestUsageBucket_IncrementUnknownKind(t *testing.T) {
	b := UsageBucket{Date: "2025-03-10", PhotosCount: 1}

	got, err := b.Increment(UsageKind("videos"), "2025-03-10")

	require.Error(t, err)
	assert.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, b, got)
}

func TestParseUsageKind(t *testing.T) {
	k, err := ParseUsageKind("recipes")
	require.NoError(t, err)
	assert.Equal(t, UsageRecipes, k)

	_, err = ParseUsageKind("Photos")
	assert.Equal(t, EINVALID, ErrorCode(err))
}

func TestGetTierLimits(t *testing.T) {
	free := GetTierLimits(SubscriptionFree)
	assert.Equal(t, 2, free.For(UsagePhotos))
	assert.Equal(t, 10, free.For(UsageMessages))
	assert.Equal(t, 1, free.For(UsageRecipes))

	pro := GetTierLimits(SubscriptionPro)
	assert.Equal(t, 50, pro.For(UsagePhotos))
	assert.Equal(t, 100, pro.For(UsageMessages))
	assert.Equal(t, 30, pro.For(UsageRecipes))

	assert.Equal(t, free, GetTierLimits(SubscriptionType("enterprise")))
}

func TestNewKindLimit(t *testing.T) {
	assert.Equal(t, KindLimit{Current: 1, Max: 2, Remaining: 1}, NewKindLimit(1, 2))
	assert.Equal(t, KindLimit{Current: 3, Max: 2, Remaining: 0}, NewKindLimit(3, 2))
}
