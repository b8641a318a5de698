package domain

import "context"

// Service applies payment-affecting webhook events. Every method is a
// reducer over the current row state and must converge when the same event
// is replayed.
type Service interface {
	ApplyPaymentIntentSucceeded(ctx context.Context, ev IntentEvent) error
	ApplyPaymentIntentFailed(ctx context.Context, ev IntentEvent) error
	ApplyCheckoutCompleted(ctx context.Context, ev CheckoutEvent) error
	ApplyInvoicePaid(ctx context.Context, ev InvoiceEvent) error
	ApplyInvoicePaymentFailed(ctx context.Context, ev InvoiceEvent) error
}
