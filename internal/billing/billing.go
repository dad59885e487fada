// Package billing resolves a user's subscription tier from Stripe. Only tier
// lookup lives here; checkout and webhook handling stay on Stripe's side.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"github.com/Abhishek-089/Hireoo-sub001/internal/usage"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/subscription"
	"gorm.io/gorm"
)

// StripeResolver maps users to tiers via their active Stripe subscription.
// Price ids come from config; anything unrecognized falls back to the tier
// stored on the user row.
type StripeResolver struct {
	DB     *gorm.DB
	Prices map[string]usage.Tier
}

func NewStripeResolver(db *gorm.DB, secretKey string, prices map[string]usage.Tier) *StripeResolver {
	stripe.Key = secretKey
	return &StripeResolver{DB: db, Prices: prices}
}

func (r *StripeResolver) ResolveTier(ctx context.Context, userID uint) (usage.Tier, error) {
	user, err := loadUser(ctx, r.DB, userID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return usage.ParseTier(user.SubscriptionTier), nil
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(user.StripeCustomerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	iter := subscription.List(params)
	for iter.Next() {
		sub := iter.Subscription()
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			if tier, ok := r.Prices[item.Price.ID]; ok {
				return tier, nil
			}
		}
	}
	if err := iter.Err(); err != nil {
		// Stripe being down must not zero anyone's limit; the stored tier
		// is the last known good value.
		log.Printf("stripe subscription list failed for user %d: %v", userID, err)
	}
	return usage.ParseTier(user.SubscriptionTier), nil
}

// StaticResolver reads the tier column directly. Used when Stripe is not
// configured (local dev, tests).
type StaticResolver struct {
	DB *gorm.DB
}

func NewStaticResolver(db *gorm.DB) *StaticResolver {
	return &StaticResolver{DB: db}
}

func (r *StaticResolver) ResolveTier(ctx context.Context, userID uint) (usage.Tier, error) {
	user, err := loadUser(ctx, r.DB, userID)
	if err != nil {
		return "", err
	}
	return usage.ParseTier(user.SubscriptionTier), nil
}

func loadUser(ctx context.Context, db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usage.ErrNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}
