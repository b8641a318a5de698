package domain

import "github.com/bwmarrin/snowflake"

// IntentEvent carries the fields reconciled from a payment-intent webhook.
type IntentEvent struct {
	StripePaymentIntentID string
	StripeCustomerID      string
	Amount                int64
	Currency              string
	PaymentMethod         string
	FailureMessage        string
	MetadataUserID        *snowflake.ID
}

// CheckoutEvent carries the fields reconciled from a completed checkout
// session.
type CheckoutEvent struct {
	SessionID             string
	Mode                  string
	StripePaymentIntentID string
	StripeSubscriptionID  string
	StripeCustomerID      string
	CustomerEmail         string
	MetadataUserID        *snowflake.ID
}

// InvoiceEvent carries the fields reconciled from an invoice webhook.
type InvoiceEvent struct {
	StripeInvoiceID      string
	StripeCustomerID     string
	StripeSubscriptionID string
	AmountPaid           int64
	AmountDue            int64
	Currency             string
	FailureMessage       string
}
