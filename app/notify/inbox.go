package notify

import (
	"context"
	"log/slog"
	"sync"
)

const defaultInboxSize = 50

// Inbox is a Deliverer that keeps the most recent notifications for display.
type Inbox struct {
	mu    sync.RWMutex
	items []Notification
	size  int
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = defaultInboxSize
	}
	return &Inbox{size: size}
}

func (i *Inbox) Deliver(ctx context.Context, n Notification) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = append(i.items, n)
	if len(i.items) > i.size {
		i.items = i.items[len(i.items)-i.size:]
	}

	slog.Info("Reminder delivered", "title", n.Content.Title, "screen", n.Payload.Screen, "time", n.Payload.Time)
	return nil
}

// List returns delivered notifications, newest first.
func (i *Inbox) List() []Notification {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Notification, 0, len(i.items))
	for j := len(i.items) - 1; j >= 0; j-- {
		out = append(out, i.items[j])
	}
	return out
}
