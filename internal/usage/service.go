package usage

import (
	"context"
	"time"
)

// TierResolver maps a user to their active subscription tier. The billing
// package provides the Stripe-backed implementation.
type TierResolver interface {
	ResolveTier(ctx context.Context, userID uint) (Tier, error)
}

// Service answers "can this user accrue one more match" and reports
// usage/limit/reset status. It owns staleness handling: the counter is never
// reset by a scheduled job, only lazily when a read or accrual notices the
// boundary has passed.
type Service struct {
	store Store
	tiers TierResolver
	now   func() time.Time
}

func NewService(store Store, tiers TierResolver) *Service {
	return &Service{
		store: store,
		tiers: tiers,
		now:   time.Now,
	}
}

// LimitInfo is the status payload backing the dashboard progress bar and the
// daily-limit endpoint.
type LimitInfo struct {
	Current         int       `json:"current"`
	Limit           int       `json:"limit"`
	ResetAt         time.Time `json:"resetAt"`
	HoursUntilReset float64   `json:"hoursUntilReset"`
	Tier            Tier      `json:"tier"`
}

// GetSubscriptionTier resolves the user's active billing tier.
func (s *Service) GetSubscriptionTier(ctx context.Context, userID uint) (Tier, error) {
	return s.tiers.ResolveTier(ctx, userID)
}

// currentUsage loads the counter row and performs the lazy reset when the
// stored boundary is at or before now. The reset write is keyed on the old
// resetAt value; losing that race to a concurrent request is fine because
// both of them target the same new boundary, and we re-read afterwards so an
// increment that landed in the new window is never clobbered or missed.
func (s *Service) currentUsage(ctx context.Context, userID uint) (*Usage, error) {
	u, err := s.store.GetUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if u.ResetAt.After(now) {
		return u, nil
	}

	next := NextResetUTC(now)
	if err := s.store.ResetUsage(ctx, userID, u.ResetAt, next); err != nil {
		return nil, err
	}
	return s.store.GetUsage(ctx, userID)
}

// GetDailyLimitInfo returns the user's current usage, tier ceiling and reset
// status, persisting a reset first if the stored boundary has passed.
func (s *Service) GetDailyLimitInfo(ctx context.Context, userID uint) (*LimitInfo, error) {
	u, err := s.currentUsage(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier, err := s.tiers.ResolveTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LimitInfo{
		Current:         u.Count,
		Limit:           DailyLimit(tier),
		ResetAt:         u.ResetAt,
		HoursUntilReset: HoursUntilReset(s.now().UTC(), u.ResetAt),
		Tier:            tier,
	}, nil
}

// CanAccrueMatch reports whether one more match fits under the ceiling right
// now. Any failure to determine status denies accrual (fail closed); callers
// must treat (false, err) as a hard stop, not a retryable "no".
func (s *Service) CanAccrueMatch(ctx context.Context, userID uint) (bool, error) {
	info, err := s.GetDailyLimitInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	return info.Current < info.Limit, nil
}

// RecordMatchCreated claims one slot under the ceiling. The claim is a single
// conditional increment in the store, so concurrent pipeline runs cannot
// overshoot the limit between a check and a write.
func (s *Service) RecordMatchCreated(ctx context.Context, userID uint) error {
	tier, err := s.tiers.ResolveTier(ctx, userID)
	if err != nil {
		return err
	}
	// Run the staleness check first so a stale counter from yesterday does
	// not eat today's budget.
	if _, err := s.currentUsage(ctx, userID); err != nil {
		return err
	}
	return s.store.IncrementBelow(ctx, userID, DailyLimit(tier))
}
