package events

import (
	"sync"
	"time"
)

// Reason describes what mutation produced a CartChanged event.
type Reason string

const (
	ReasonItemAdded       Reason = "item_added"
	ReasonQuantityUpdated Reason = "quantity_updated"
	ReasonItemRemoved     Reason = "item_removed"
	ReasonCleared         Reason = "cleared"
	ReasonReconciled      Reason = "reconciled"
	ReasonCheckedOut      Reason = "checked_out"
)

// CartChanged is published after every successful cart mutation. Cached-read
// layers subscribe to it instead of being coupled to a specific cache's
// invalidation API.
type CartChanged struct {
	GuestID   string
	UserID    string
	Reason    Reason
	ItemCount int
	At        time.Time
}

// Bus is a synchronous in-process fan-out of CartChanged events. Subscribers
// run on the publisher's goroutine in registration order.
type Bus struct {
	mu   sync.RWMutex
	subs []func(CartChanged)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future events.
func (b *Bus) Subscribe(fn func(CartChanged)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish delivers the event to every subscriber. The timestamp is filled in
// when unset.
func (b *Bus) Publish(ev CartChanged) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	subs := make([]func(CartChanged), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}
}
