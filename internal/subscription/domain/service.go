package domain

import "context"

// Service applies subscription lifecycle webhook events. Handlers tolerate
// any arrival order for the same external id; the last delivered event
// wins.
type Service interface {
	ApplyCreated(ctx context.Context, ev SubscriptionEvent) error
	ApplyUpdated(ctx context.Context, ev SubscriptionEvent) error
	ApplyDeleted(ctx context.Context, ev SubscriptionEvent) error
}
