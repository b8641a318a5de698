package domain

import "errors"

var ErrMissingSubscription = errors.New("missing stripe subscription id")
