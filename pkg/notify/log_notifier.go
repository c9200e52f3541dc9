package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the logger instead of sending email.
// Meant for development and tests.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.log.InfoContext(ctx, "billing notification",
		"kind", string(notification.Kind),
		"account_id", notification.AccountID,
		"tier", string(notification.Tier),
	)
	return nil
}
