package notify

import (
	"sync"
	"time"
)

// Notification is a user visible message about a failed request.
type Notification struct {
	Kind    string
	Message string
	At      time.Time
}

// Notifier must not block the caller.
type Notifier interface {
	Notify(n Notification)
}

type Func func(n Notification)

func (f Func) Notify(n Notification) {
	f(n)
}

type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

// Board keeps the latest notifications until somebody drains them.
type Board struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

func NewBoard(limit int) *Board {
	if limit <= 0 {
		limit = 1
	}
	return &Board{limit: limit}
}

func (b *Board) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, n)
	if overflow := len(b.items) - b.limit; overflow > 0 {
		b.items = append(b.items[:0:0], b.items[overflow:]...)
	}
}

// Drain returns pending notifications in arrival order and forgets them.
func (b *Board) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.items
	b.items = nil
	return items
}
