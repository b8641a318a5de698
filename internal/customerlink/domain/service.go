package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service resolves processor-side customer ids back to internal users and
// records newly discovered mappings.
type Service interface {
	// ResolveUser returns the internal user owning the stripe customer, or
	// nil when the customer is unknown locally.
	ResolveUser(ctx context.Context, stripeCustomerID string) (*snowflake.ID, error)

	// RecordLink persists a user -> stripe customer mapping. Safe to call
	// repeatedly with the same pair.
	RecordLink(ctx context.Context, userID snowflake.ID, stripeCustomerID, email, name string) (*CustomerLink, error)

	// FindByUser returns the link for the user, or nil when none exists.
	FindByUser(ctx context.Context, userID snowflake.ID) (*CustomerLink, error)
}
