package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, link *CustomerLink) error
	FindByStripeCustomerID(ctx context.Context, db *gorm.DB, stripeCustomerID string) (*CustomerLink, error)
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*CustomerLink, error)
}
