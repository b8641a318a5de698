package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment records one attempted charge. One-time charges key on the
// payment-intent id, subscription invoices key on the invoice id; a row
// never carries both keys ambiguously and is never deleted. Status may be
// overwritten in place but amount and currency are immutable once set.
type Payment struct {
	ID                    snowflake.ID      `gorm:"column:id;primaryKey" json:"id"`
	UserID                *snowflake.ID     `gorm:"column:user_id" json:"user_id,omitempty"`
	SubscriptionID        *snowflake.ID     `gorm:"column:subscription_id" json:"subscription_id,omitempty"`
	StripeCustomerID      string            `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripePaymentIntentID *string           `gorm:"column:stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	StripeInvoiceID       *string           `gorm:"column:stripe_invoice_id" json:"stripe_invoice_id,omitempty"`
	Amount                int64             `gorm:"column:amount" json:"amount"`
	Currency              string            `gorm:"column:currency" json:"currency"`
	Status                PaymentStatus     `gorm:"column:status" json:"status"`
	PaymentMethod         string            `gorm:"column:payment_method" json:"payment_method,omitempty"`
	Metadata              datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt             time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
