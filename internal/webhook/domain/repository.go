package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert records the event, reporting false when the event id was
	// already recorded by an earlier delivery.
	Insert(ctx context.Context, db *gorm.DB, record *EventRecord) (bool, error)
	FindByStripeEventID(ctx context.Context, db *gorm.DB, stripeEventID string) (*EventRecord, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, stripeEventID string, at time.Time) error
	MarkFailed(ctx context.Context, db *gorm.DB, stripeEventID string, reason string) error
}
