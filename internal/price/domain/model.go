package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Price mirrors a processor-side price so checkout sessions can be built
// from internal identifiers. Amounts are minor units.
type Price struct {
	ID                snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	StripePriceID     string       `gorm:"column:stripe_price_id" json:"stripe_price_id"`
	StripeProductID   string       `gorm:"column:stripe_product_id" json:"stripe_product_id"`
	Nickname          string       `gorm:"column:nickname" json:"nickname"`
	UnitAmount        int64        `gorm:"column:unit_amount" json:"unit_amount"`
	Currency          string       `gorm:"column:currency" json:"currency"`
	RecurringInterval string       `gorm:"column:recurring_interval" json:"recurring_interval,omitempty"`
	Active            bool         `gorm:"column:active" json:"active"`
	CreatedAt         time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (Price) TableName() string { return "prices" }

// Recurring reports whether the price bills on an interval rather than
// one time.
func (p Price) Recurring() bool { return p.RecurringInterval != "" }
