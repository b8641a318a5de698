package domain

import "errors"

var (
	// ErrMissingSecret means the signing secret is not configured. This is
	// an operator fault, never a caller fault.
	ErrMissingSecret = errors.New("webhook signing secret not configured")

	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
)
