package gateway

import "errors"

var (
	ErrUnavailable     = errors.New("payment gateway unavailable")
	ErrInvalidConfig   = errors.New("invalid gateway configuration")
	ErrMissingCustomer = errors.New("gateway customer id is required")
	ErrNoPaymentLink   = errors.New("no payment link returned by gateway")
)
