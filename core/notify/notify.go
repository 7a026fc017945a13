package notify

import "context"

// Notifier delivers a task notification to one person. The engine only
// decides that a notification should go out; transport lives behind this
// interface and failures never affect task creation.
type Notifier interface {
	Notify(ctx context.Context, personnelID, locator string) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }
