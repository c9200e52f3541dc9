package httpserver

import "errors"

var (
	ErrServerFailed   = errors.New("http server failed")
	ErrShutdownFailed = errors.New("http server shutdown failed")
)
