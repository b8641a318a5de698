package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Price, error)
	FindByStripePriceID(ctx context.Context, db *gorm.DB, stripePriceID string) (*Price, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*Price, error)
}
