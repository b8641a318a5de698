package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByStripeSubscriptionID(ctx context.Context, db *gorm.DB, stripeSubscriptionID string) (*Subscription, error)
}
