package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription mirrors the processor's authoritative subscription state,
// keyed on the external subscription id. Status and period fields reflect
// the most recently processed event for the id, not business time. Rows
// are never hard-deleted.
type Subscription struct {
	ID                   snowflake.ID       `gorm:"column:id;primaryKey" json:"id"`
	UserID               *snowflake.ID      `gorm:"column:user_id" json:"user_id,omitempty"`
	PriceID              *snowflake.ID      `gorm:"column:price_id" json:"price_id,omitempty"`
	StripeSubscriptionID string             `gorm:"column:stripe_subscription_id" json:"stripe_subscription_id"`
	StripeCustomerID     string             `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripePriceID        string             `gorm:"column:stripe_price_id" json:"stripe_price_id,omitempty"`
	Status               SubscriptionStatus `gorm:"column:status" json:"status"`
	CurrentPeriodStart   *time.Time         `gorm:"column:current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"column:cancel_at_period_end" json:"cancel_at_period_end"`
	CanceledAt           *time.Time         `gorm:"column:canceled_at" json:"canceled_at,omitempty"`
	CreatedAt            time.Time          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"column:updated_at" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
