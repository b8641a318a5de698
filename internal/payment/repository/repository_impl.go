package repository

import (
	"context"

	"github.com/harborlane/paysync/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const paymentColumns = `id, user_id, subscription_id, stripe_customer_id, stripe_payment_intent_id,
	stripe_invoice_id, amount, currency, status, payment_method, metadata, created_at, updated_at`

// UpsertByPaymentIntent inserts or refreshes the row keyed on the
// payment-intent id. Amount and currency are only written on first insert.
func (r *repo) UpsertByPaymentIntent(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_payment_intent_id) DO UPDATE SET
		   status = excluded.status,
		   payment_method = excluded.payment_method,
		   metadata = excluded.metadata,
		   user_id = COALESCE(payments.user_id, excluded.user_id),
		   stripe_customer_id = CASE
		     WHEN excluded.stripe_customer_id <> '' THEN excluded.stripe_customer_id
		     ELSE payments.stripe_customer_id
		   END,
		   updated_at = excluded.updated_at`,
		payment.ID,
		payment.UserID,
		payment.SubscriptionID,
		payment.StripeCustomerID,
		payment.StripePaymentIntentID,
		payment.StripeInvoiceID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PaymentMethod,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

// UpsertByInvoice inserts or refreshes the row keyed on the invoice id.
func (r *repo) UpsertByInvoice(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_invoice_id) DO UPDATE SET
		   status = excluded.status,
		   metadata = excluded.metadata,
		   user_id = COALESCE(payments.user_id, excluded.user_id),
		   subscription_id = COALESCE(payments.subscription_id, excluded.subscription_id),
		   updated_at = excluded.updated_at`,
		payment.ID,
		payment.UserID,
		payment.SubscriptionID,
		payment.StripeCustomerID,
		payment.StripePaymentIntentID,
		payment.StripeInvoiceID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.PaymentMethod,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET
		   user_id = ?,
		   subscription_id = ?,
		   status = ?,
		   payment_method = ?,
		   metadata = ?,
		   updated_at = ?
		 WHERE id = ?`,
		payment.UserID,
		payment.SubscriptionID,
		payment.Status,
		payment.PaymentMethod,
		payment.Metadata,
		payment.UpdatedAt,
		payment.ID,
	).Error
}

func (r *repo) FindByPaymentIntent(ctx context.Context, db *gorm.DB, stripePaymentIntentID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE stripe_payment_intent_id = ?`,
		stripePaymentIntentID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) FindByInvoice(ctx context.Context, db *gorm.DB, stripeInvoiceID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT `+paymentColumns+` FROM payments WHERE stripe_invoice_id = ?`,
		stripeInvoiceID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}
