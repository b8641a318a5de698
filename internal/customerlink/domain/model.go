package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CustomerLink maps an internal user to the processor-side customer record.
// Each user owns at most one link and each stripe customer belongs to at
// most one user.
type CustomerLink struct {
	ID               snowflake.ID `gorm:"column:id;primaryKey" json:"id"`
	UserID           snowflake.ID `gorm:"column:user_id" json:"user_id"`
	StripeCustomerID string       `gorm:"column:stripe_customer_id" json:"stripe_customer_id"`
	Email            string       `gorm:"column:email" json:"email"`
	Name             string       `gorm:"column:name" json:"name"`
	CreatedAt        time.Time    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"column:updated_at" json:"updated_at"`
}

func (CustomerLink) TableName() string { return "stripe_customers" }
