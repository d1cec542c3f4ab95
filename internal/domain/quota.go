// Package domain contains core business types and interfaces.
//
// This file defines the daily usage kinds and the fixed per-plan limits
// consulted by the limit gate.
package domain

import "fmt"

// UsageKind identifies a metered action.
type UsageKind string

const (
	UsagePhotos   UsageKind = "photos"
	UsageMessages UsageKind = "messages"
	UsageRecipes  UsageKind = "recipes"
)

// UsageKinds lists every metered action in display order.
var UsageKinds = []UsageKind{UsagePhotos, UsageMessages, UsageRecipes}

// IsValid returns true if the kind is metered.
func (k UsageKind) IsValid() bool {
	switch k {
	case UsagePhotos, UsageMessages, UsageRecipes:
		return true
	}
	return false
}

// ParseUsageKind validates a raw kind name.
func ParseUsageKind(s string) (UsageKind, error) {
	k := UsageKind(s)
	if !k.IsValid() {
		return "", Invalid("usage.parse", fmt.Sprintf("Unknown usage kind %q", s))
	}
	return k, nil
}

// TierLimits holds the daily ceilings of a plan.
type TierLimits struct {
	Photos   int
	Messages int
	Recipes  int
}

// For returns the ceiling for kind.
func (l TierLimits) For(kind UsageKind) int {
	switch kind {
	case UsagePhotos:
		return l.Photos
	case UsageMessages:
		return l.Messages
	case UsageRecipes:
		return l.Recipes
	}
	return 0
}

// Limits maps plans to their daily ceilings.
var Limits = map[SubscriptionType]TierLimits{
	SubscriptionFree: {
		Photos:   2,
		Messages: 10,
		Recipes:  1,
	},
	SubscriptionPro: {
		Photos:   50,
		Messages: 100,
		Recipes:  30,
	},
}

// GetTierLimits returns the limits for a plan, defaulting to free for unknown plans.
func GetTierLimits(t SubscriptionType) TierLimits {
	if limits, ok := Limits[t]; ok {
		return limits
	}
	return Limits[SubscriptionFree]
}

// LimitInfo is what the gate attaches to an allowed request.
type LimitInfo struct {
	SubscriptionType SubscriptionType
	IsPro            bool
	Kind             UsageKind
	Current          int
	Max              int
}

// Remaining returns how many actions of Kind are left today.
func (l LimitInfo) Remaining() int {
	if l.Current >= l.Max {
		return 0
	}
	return l.Max - l.Current
}

// KindLimit is one row of the limits summary.
type KindLimit struct {
	Current   int `json:"current"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}

// NewKindLimit builds a summary row.
func NewKindLimit(current, max int) KindLimit {
	remaining := max - current
	if remaining < 0 {
		remaining = 0
	}
	return KindLimit{Current: current, Max: max, Remaining: remaining}
}
