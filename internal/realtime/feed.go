// Package realtime broadcasts content changes made through the admin console
// so that open dashboards can refresh without polling.
package realtime

import (
    "context"
    "sync"
    "time"
)

// Change actions.
const (
    ActionCreated = "created"
    ActionUpdated = "updated"
    ActionDeleted = "deleted"
)

// ChangeEvent describes one row change.
type ChangeEvent struct {
    Table  string    `json:"table"`
    Action string    `json:"action"`
    ID     string    `json:"id"`
    At     time.Time `json:"at"`
}

// Feed fans change events out to subscribers.  Subscribe returns a channel
// that is closed once ctx is done or cancel is called.  Slow subscribers
// miss events rather than block publishers.
type Feed interface {
    Publish(ctx context.Context, ev ChangeEvent) error
    Subscribe(ctx context.Context) (<-chan ChangeEvent, func())
}

const subscriberBuffer = 32

// MemoryFeed is an in-process Feed used when Redis is not configured.  It
// only reaches subscribers in the same process.
type MemoryFeed struct {
    mu   sync.Mutex
    subs map[chan ChangeEvent]struct{}
}

func NewMemoryFeed() *MemoryFeed {
    return &MemoryFeed{subs: make(map[chan ChangeEvent]struct{})}
}

func (f *MemoryFeed) Publish(_ context.Context, ev ChangeEvent) error {
    if ev.At.IsZero() {
        ev.At = time.Now().UTC()
    }
    f.mu.Lock()
    defer f.mu.Unlock()
    for ch := range f.subs {
        select {
        case ch <- ev:
        default:
        }
    }
    return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
    ch := make(chan ChangeEvent, subscriberBuffer)
    f.mu.Lock()
    f.subs[ch] = struct{}{}
    f.mu.Unlock()

    var once sync.Once
    cancel := func() {
        once.Do(func() {
            f.mu.Lock()
            delete(f.subs, ch)
            f.mu.Unlock()
            close(ch)
        })
    }
    go func() {
        <-ctx.Done()
        cancel()
    }()
    return ch, cancel
}

// Subscribers returns the number of open subscriptions.
func (f *MemoryFeed) Subscribers() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.subs)
}
