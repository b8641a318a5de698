package repository

import (
	"context"

	"github.com/harborlane/paysync/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, user_id, price_id, stripe_subscription_id, stripe_customer_id,
	stripe_price_id, status, current_period_start, current_period_end, cancel_at_period_end,
	canceled_at, created_at, updated_at`

// Upsert inserts or overwrites the row keyed on the external subscription
// id. Status, cancel flag and cancellation timestamp take the incoming
// value unconditionally; period bounds keep the stored value when the
// event omits them.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_subscription_id) DO UPDATE SET
		   status = excluded.status,
		   current_period_start = COALESCE(excluded.current_period_start, subscriptions.current_period_start),
		   current_period_end = COALESCE(excluded.current_period_end, subscriptions.current_period_end),
		   cancel_at_period_end = excluded.cancel_at_period_end,
		   canceled_at = excluded.canceled_at,
		   user_id = COALESCE(subscriptions.user_id, excluded.user_id),
		   price_id = COALESCE(subscriptions.price_id, excluded.price_id),
		   stripe_price_id = CASE
		     WHEN excluded.stripe_price_id <> '' THEN excluded.stripe_price_id
		     ELSE subscriptions.stripe_price_id
		   END,
		   stripe_customer_id = CASE
		     WHEN excluded.stripe_customer_id <> '' THEN excluded.stripe_customer_id
		     ELSE subscriptions.stripe_customer_id
		   END,
		   updated_at = excluded.updated_at`,
		subscription.ID,
		subscription.UserID,
		subscription.PriceID,
		subscription.StripeSubscriptionID,
		subscription.StripeCustomerID,
		subscription.StripePriceID,
		subscription.Status,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CancelAtPeriodEnd,
		subscription.CanceledAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByStripeSubscriptionID(ctx context.Context, db *gorm.DB, stripeSubscriptionID string) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_subscription_id = ?`,
		stripeSubscriptionID,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}
