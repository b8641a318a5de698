package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	UpsertByPaymentIntent(ctx context.Context, db *gorm.DB, payment *Payment) error
	UpsertByInvoice(ctx context.Context, db *gorm.DB, payment *Payment) error
	Update(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByPaymentIntent(ctx context.Context, db *gorm.DB, stripePaymentIntentID string) (*Payment, error)
	FindByInvoice(ctx context.Context, db *gorm.DB, stripeInvoiceID string) (*Payment, error)
}
