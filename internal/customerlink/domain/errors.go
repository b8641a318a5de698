package domain

import "errors"

var (
	ErrInvalidUser     = errors.New("invalid user id")
	ErrInvalidCustomer = errors.New("invalid stripe customer id")
)
