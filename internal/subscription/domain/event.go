package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionEvent carries the fields reconciled from a subscription
// lifecycle webhook. Statuses outside the known set are passed through
// verbatim.
type SubscriptionEvent struct {
	StripeSubscriptionID string
	StripeCustomerID     string
	StripePriceID        string
	Status               string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	CanceledAt           *time.Time
	MetadataUserID       *snowflake.ID
	OccurredAt           time.Time
}
