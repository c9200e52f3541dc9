package quota

import "errors"

// ErrQuotaExceeded means the monthly limit is spent. It is a user-visible
// condition, not a bug: callers surface it as a temporary-limit message.
var ErrQuotaExceeded = errors.New("monthly quota exceeded")
