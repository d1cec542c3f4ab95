package domain

// UsageBucket is the single rolling record of a user's daily actions.
// Counts are only meaningful while Date equals today.
type UsageBucket struct {
	Date          string // local YYYY-MM-DD, empty when never used
	PhotosCount   int
	MessagesCount int
	RecipesCount  int
}

// CurrentUsage returns the bucket as of today. A stale bucket reads as zero
// and is not persisted until the next increment.
func CurrentUsage(bucket UsageBucket, today string) UsageBucket {
	if bucket.Date != today {
		return UsageBucket{Date: today}
	}
	return bucket
}

// Count returns the counter for kind.
func (b UsageBucket) Count(kind UsageKind) int {
	switch kind {
	case UsagePhotos:
		return b.PhotosCount
	case UsageMessages:
		return b.MessagesCount
	case UsageRecipes:
		return b.RecipesCount
	}
	return 0
}

// Increment resets a stale bucket to today and adds one to kind.
func (b UsageBucket) Increment(kind UsageKind, today string) (UsageBucket, error) {
	if !kind.IsValid() {
		return b, Invalid("usage.increment", "Unknown usage kind "+string(kind))
	}

	next := CurrentUsage(b, today)
	switch kind {
	case UsagePhotos:
		next.PhotosCount++
	case UsageMessages:
		next.MessagesCount++
	case UsageRecipes:
		next.RecipesCount++
	}
	return next, nil
}
