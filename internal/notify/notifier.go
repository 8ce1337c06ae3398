// Package notify formats new posts and delivers them to a chat channel.
package notify

import "context"

// Notification represents a notification message.
type Notification struct {
	Subject string
	Body    string
}

// Text returns the message as a single block of text.
func (n Notification) Text() string {
	if n.Body == "" {
		return n.Subject
	}
	return n.Subject + "\n" + n.Body
}

// Notifier is the interface for sending notifications.
type Notifier interface {
	// Name returns the delivery channel name.
	Name() string

	// Send sends a notification.
	Send(ctx context.Context, notification Notification) error
}
