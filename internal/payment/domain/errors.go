package domain

import "errors"

var (
	ErrMissingPaymentIntent = errors.New("missing stripe payment intent id")
	ErrMissingInvoice       = errors.New("missing stripe invoice id")
)
