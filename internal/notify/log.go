package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct{}

// NewLogNotifier creates a new log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name returns the notifier name.
func (l *LogNotifier) Name() string {
	return "log"
}

// Send logs the notification.
func (l *LogNotifier) Send(ctx context.Context, notification Notification) error {
	slog.Info("notification",
		"subject", notification.Subject,
		"body", notification.Body,
	)
	return nil
}
