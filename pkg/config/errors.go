package config

import "errors"

var (
	ErrNilConfig     = errors.New("config must be a non-nil pointer to a struct")
	ErrParsingConfig = errors.New("failed to parse config from environment")
)
