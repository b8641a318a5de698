package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/harborlane/paysync/internal/customerlink/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, link *domain.CustomerLink) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO stripe_customers (id, user_id, stripe_customer_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_customer_id) DO UPDATE SET
		   email = excluded.email,
		   name = excluded.name,
		   updated_at = excluded.updated_at`,
		link.ID,
		link.UserID,
		link.StripeCustomerID,
		link.Email,
		link.Name,
		link.CreatedAt,
		link.UpdatedAt,
	).Error
}

func (r *repo) FindByStripeCustomerID(ctx context.Context, db *gorm.DB, stripeCustomerID string) (*domain.CustomerLink, error) {
	var link domain.CustomerLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, stripe_customer_id, email, name, created_at, updated_at
		 FROM stripe_customers WHERE stripe_customer_id = ?`,
		stripeCustomerID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.CustomerLink, error) {
	var link domain.CustomerLink
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, stripe_customer_id, email, name, created_at, updated_at
		 FROM stripe_customers WHERE user_id = ?`,
		userID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.ID == 0 {
		return nil, nil
	}
	return &link, nil
}
