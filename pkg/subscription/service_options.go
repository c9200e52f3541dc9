package subscription

import (
	"log/slog"
	"time"

	"github.com/liguepro/billing/pkg/notify"
)

// Option configures a Service instance.
type Option func(*Service)

// WithWebhookToken sets the shared secret inbound deliveries must present.
// Without it every delivery is rejected.
func WithWebhookToken(token string) Option {
	return func(s *Service) {
		s.webhookToken = token
	}
}

// WithDedupStore replaces the default in-memory dedup store, e.g. with the
// Redis implementation for multi-process deployments.
func WithDedupStore(d DedupStore) Option {
	return func(s *Service) {
		if d != nil {
			s.dedup = d
		}
	}
}

// WithNotifier enables billing lifecycle notifications.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
