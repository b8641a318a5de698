package domain

import "errors"

var (
	ErrInvalidMode        = errors.New("invalid checkout mode")
	ErrInvalidPrice       = errors.New("invalid price id")
	ErrPriceNotFound      = errors.New("price not found")
	ErrModeMismatch       = errors.New("price interval does not match checkout mode")
	ErrRedirectNotAllowed = errors.New("redirect url not allowed")
)
