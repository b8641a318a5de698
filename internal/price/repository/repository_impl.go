package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/price/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const priceColumns = `id, stripe_price_id, stripe_product_id, nickname, unit_amount,
	currency, recurring_interval, active, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Price, error) {
	var price domain.Price
	err := db.WithContext(ctx).Raw(
		`SELECT `+priceColumns+` FROM prices WHERE id = ?`,
		id,
	).Scan(&price).Error
	if err != nil {
		return nil, err
	}
	if price.ID == 0 {
		return nil, nil
	}
	return &price, nil
}

func (r *repo) FindByStripePriceID(ctx context.Context, db *gorm.DB, stripePriceID string) (*domain.Price, error) {
	var price domain.Price
	err := db.WithContext(ctx).Raw(
		`SELECT `+priceColumns+` FROM prices WHERE stripe_price_id = ?`,
		stripePriceID,
	).Scan(&price).Error
	if err != nil {
		return nil, err
	}
	if price.ID == 0 {
		return nil, nil
	}
	return &price, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.Price, error) {
	var prices []*domain.Price
	err := db.WithContext(ctx).
		Model(&domain.Price{}).
		Where("active = ?", true).
		Order("unit_amount asc, id asc").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}
