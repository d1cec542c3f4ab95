// Package domain contains core business types and interfaces.
//
// This file defines subscription types and the pure rules for expiry and
// grants. Callers decide when a computed downgrade is written back.
package domain

import (
	"fmt"
	"time"
)

// SubscriptionType is the stored plan of a user.
type SubscriptionType string

const (
	SubscriptionFree SubscriptionType = "free"
	SubscriptionPro  SubscriptionType = "pro"
)

// String returns the string representation of the type.
func (t SubscriptionType) String() string {
	return string(t)
}

// IsValid returns true if the type is a recognized plan.
func (t SubscriptionType) IsValid() bool {
	switch t {
	case SubscriptionFree, SubscriptionPro:
		return true
	}
	return false
}

// ParseSubscriptionType validates a raw plan name.
func ParseSubscriptionType(s string) (SubscriptionType, error) {
	t := SubscriptionType(s)
	if !t.IsValid() {
		return "", Invalid("subscription.parse", fmt.Sprintf("Invalid subscription type %q. Must be \"free\" or \"pro\"", s))
	}
	return t, nil
}

// Subscription is the stored or effective plan of a user.
type Subscription struct {
	Type      SubscriptionType
	ExpiresAt *time.Time // nil means no expiry
}

// IsPro returns true for the pro plan.
func (s Subscription) IsPro() bool {
	return s.Type == SubscriptionPro
}

// EffectiveSubscription returns the plan that applies at now.
// needsPersist is true when an expired pro plan was downgraded and the
// caller should write the result back.
func EffectiveSubscription(stored Subscription, now time.Time) (effective Subscription, needsPersist bool) {
	if stored.Type == SubscriptionPro && stored.ExpiresAt != nil && now.After(*stored.ExpiresAt) {
		return Subscription{Type: SubscriptionFree}, true
	}
	if !stored.Type.IsValid() {
		return Subscription{Type: SubscriptionFree}, true
	}
	return stored, false
}

// GrantSubscription computes the plan produced by an admin grant.
// Pro expiry is local midnight today plus durationDays; a nil duration
// grants pro without expiry. Free always clears the expiry.
func GrantSubscription(cal *Calendar, t SubscriptionType, durationDays *int, now time.Time) (Subscription, error) {
	const op = "subscription.grant"

	if !t.IsValid() {
		return Subscription{}, Invalid(op, fmt.Sprintf("Invalid subscription type %q. Must be \"free\" or \"pro\"", t))
	}

	if t == SubscriptionFree {
		return Subscription{Type: SubscriptionFree}, nil
	}

	if durationDays == nil {
		return Subscription{Type: SubscriptionPro}, nil
	}
	if *durationDays <= 0 {
		return Subscription{}, Invalid(op, "durationDays must be a positive integer")
	}

	expiresAt := cal.AddDays(now, *durationDays)
	return Subscription{Type: SubscriptionPro, ExpiresAt: &expiresAt}, nil
}

// RemainingDays returns the whole local days left before expiry.
// It returns -1 when there is no expiry and never goes below zero otherwise.
func RemainingDays(cal *Calendar, expiresAt *time.Time, now time.Time) int {
	if expiresAt == nil {
		return -1
	}
	if !now.Before(*expiresAt) {
		return 0
	}
	return cal.DaysBetween(now, *expiresAt)
}
