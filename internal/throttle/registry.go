package throttle

import (
    "context"
    "sync"
    "time"
)

// Form names used by the site's submission endpoints.
const (
    FormContact        = "contact"
    FormBooking        = "booking"
    FormServiceInquiry = "service_inquiry"
    FormPayment        = "payment"
)

// DefaultPresets returns the per-form settings used when no override is
// configured.
func DefaultPresets() map[string]Options {
    return map[string]Options{
        FormContact:        {MinInterval: 5 * time.Second, MaxSubmissions: 3, TimeWindow: 5 * time.Minute},
        FormBooking:        {MinInterval: 3 * time.Second, MaxSubmissions: 5, TimeWindow: time.Minute},
        FormServiceInquiry: {MinInterval: 3 * time.Second, MaxSubmissions: 5, TimeWindow: time.Minute},
        FormPayment:        {MinInterval: 10 * time.Second, MaxSubmissions: 3, TimeWindow: 10 * time.Minute},
    }
}

// Registry hands out one Throttle per (form, visitor) pair and forgets the
// ones that have been idle for long enough.
type Registry struct {
    mu           sync.Mutex
    entries      map[registryKey]*registryEntry
    presets      map[string]Options
    now          Clock
    idleTTL      time.Duration
    cleanupEvery time.Duration
}

type registryKey struct {
    form    string
    visitor string
}

type registryEntry struct {
    th       *Throttle
    lastSeen time.Time
}

type RegistryOption func(*Registry)

func WithIdleTTL(d time.Duration) RegistryOption {
    return func(r *Registry) { r.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) RegistryOption {
    return func(r *Registry) { r.cleanupEvery = d }
}

func WithRegistryClock(c Clock) RegistryOption {
    return func(r *Registry) {
        if c != nil {
            r.now = c
        }
    }
}

// NewRegistry builds a registry over the given presets. Forms without a
// preset use DefaultOptions. Preset values are kept as given.
func NewRegistry(presets map[string]Options, opts ...RegistryOption) *Registry {
    r := &Registry{
        entries:      make(map[registryKey]*registryEntry),
        presets:      make(map[string]Options, len(presets)),
        now:          time.Now,
        idleTTL:      15 * time.Minute,
        cleanupEvery: 2 * time.Minute,
    }
    for form, o := range presets {
        r.presets[form] = o
    }
    for _, opt := range opts {
        opt(r)
    }
    return r
}

// Preset returns the options applied to new throttles of form.
func (r *Registry) Preset(form string) Options {
    if o, ok := r.presets[form]; ok {
        return o
    }
    return DefaultOptions()
}

// Known reports whether form has a configured preset.
func (r *Registry) Known(form string) bool {
    _, ok := r.presets[form]
    return ok
}

// Get returns the throttle for (form, visitor), creating it on first use.
func (r *Registry) Get(form, visitor string) *Throttle {
    if visitor == "" {
        visitor = "anonymous"
    }
    k := registryKey{form: form, visitor: visitor}
    now := r.now()

    r.mu.Lock()
    defer r.mu.Unlock()

    if ent, ok := r.entries[k]; ok {
        ent.lastSeen = now
        return ent.th
    }
    th := New(r.Preset(form), WithClock(r.now))
    r.entries[k] = &registryEntry{th: th, lastSeen: now}
    return th
}

// Release disposes and drops the throttle for (form, visitor) and reports
// whether one was held.
func (r *Registry) Release(form, visitor string) bool {
    k := registryKey{form: form, visitor: visitor}
    r.mu.Lock()
    ent, ok := r.entries[k]
    delete(r.entries, k)
    r.mu.Unlock()
    if ok {
        ent.th.Dispose()
    }
    return ok
}

func (r *Registry) Len() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return len(r.entries)
}

// Cleanup disposes throttles idle for longer than both the idle TTL and
// their own window, so no live history is ever discarded.
func (r *Registry) Cleanup() int {
    now := r.now()
    var dropped []*Throttle

    r.mu.Lock()
    for k, ent := range r.entries {
        ttl := r.idleTTL
        if w := ent.th.Options().TimeWindow; w > ttl {
            ttl = w
        }
        if now.Sub(ent.lastSeen) > ttl {
            delete(r.entries, k)
            dropped = append(dropped, ent.th)
        }
    }
    r.mu.Unlock()

    for _, th := range dropped {
        th.Dispose()
    }
    return len(dropped)
}

// StartJanitor runs Cleanup periodically until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context) {
    if r.cleanupEvery <= 0 {
        return
    }
    t := time.NewTicker(r.cleanupEvery)
    go func() {
        defer t.Stop()
        for {
            select {
            case <-ctx.Done():
                return
            case <-t.C:
                r.Cleanup()
            }
        }
    }()
}
