// Package throttle gates how often a visitor may submit a form.
//
// A Throttle keeps the history of accepted submissions for one form and one
// visitor: the instants of recent submissions inside a rolling window and the
// instant of the last one. A submission is accepted only when the minimum
// interval since the last accepted submission has elapsed and the window
// still has a free slot. All derived values (cooldown, remaining slots) are
// recomputed from the clock on every call; there is no timer to stop.
package throttle

import (
    "sync"
    "time"
)

const (
    DefaultMinInterval    = 3 * time.Second
    DefaultMaxSubmissions = 5
    DefaultTimeWindow     = time.Minute
)

// Options configures a Throttle. Values are used as given: a zero
// MinInterval disables the interval check and a zero MaxSubmissions accepts
// nothing. Negative values are accepted as is.
type Options struct {
    MinInterval    time.Duration
    MaxSubmissions int
    TimeWindow     time.Duration
}

// DefaultOptions returns the settings used for forms without a preset.
func DefaultOptions() Options {
    return Options{
        MinInterval:    DefaultMinInterval,
        MaxSubmissions: DefaultMaxSubmissions,
        TimeWindow:     DefaultTimeWindow,
    }
}

// Clock returns the current instant.
type Clock func() time.Time

// State is the logical state of a Throttle at a given instant.
type State int

const (
    Ready State = iota
    CoolingDown
)

func (s State) String() string {
    if s == Ready {
        return "ready"
    }
    return "cooling_down"
}

// Status is a consistent snapshot of a Throttle.
type Status struct {
    State                State
    CooldownRemaining    time.Duration
    SubmissionsRemaining int
    RetryAfter           time.Duration
}

// Throttle is safe for concurrent use.
type Throttle struct {
    mu   sync.Mutex
    opts Options
    now  Clock

    timestamps []time.Time
    last       time.Time // zero means no accepted submission yet
    disposed   bool
}

// Option customizes a Throttle at construction.
type Option func(*Throttle)

// WithClock replaces time.Now, mainly for tests.
func WithClock(c Clock) Option {
    return func(t *Throttle) {
        if c != nil {
            t.now = c
        }
    }
}

func New(opts Options, extra ...Option) *Throttle {
    t := &Throttle{
        opts: opts,
        now:  time.Now,
    }
    for _, o := range extra {
        o(t)
    }
    return t
}

func (t *Throttle) Options() Options { return t.opts }

// CanSubmit reports whether a submission would be accepted right now.
func (t *Throttle) CanSubmit() bool {
    t.mu.Lock()
    defer t.mu.Unlock()
    return t.canSubmitLocked(t.now())
}

// RecordSubmission accepts a submission if CanSubmit holds and returns
// whether it did. A rejected call leaves the history untouched.
func (t *Throttle) RecordSubmission() bool {
    t.mu.Lock()
    defer t.mu.Unlock()

    now := t.now()
    if !t.canSubmitLocked(now) {
        return false
    }
    t.timestamps = append(t.timestamps, now)
    t.last = now
    t.disposed = false
    return true
}

// Reset forgets every accepted submission.
func (t *Throttle) Reset() {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.resetLocked()
}

// Dispose resets the throttle and marks it released. A Registry drops
// disposed instances; a later RecordSubmission revives it.
func (t *Throttle) Dispose() {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.resetLocked()
    t.disposed = true
}

func (t *Throttle) Disposed() bool {
    t.mu.Lock()
    defer t.mu.Unlock()
    return t.disposed
}

// CooldownRemaining is the time left before MinInterval has elapsed since
// the last accepted submission. It is zero when nothing was submitted.
func (t *Throttle) CooldownRemaining() time.Duration {
    t.mu.Lock()
    defer t.mu.Unlock()
    return t.cooldownLocked(t.now())
}

// SubmissionsRemaining is the number of free slots in the rolling window.
func (t *Throttle) SubmissionsRemaining() int {
    t.mu.Lock()
    defer t.mu.Unlock()
    t.purgeLocked(t.now())
    return t.remainingLocked()
}

// RetryAfter is the time until a submission would be accepted, accounting
// for both the interval and the window.
func (t *Throttle) RetryAfter() time.Duration {
    t.mu.Lock()
    defer t.mu.Unlock()
    now := t.now()
    t.purgeLocked(now)
    return t.retryAfterLocked(now)
}

func (t *Throttle) State() State {
    t.mu.Lock()
    defer t.mu.Unlock()
    if t.canSubmitLocked(t.now()) {
        return Ready
    }
    return CoolingDown
}

// Status returns every derived value computed against the same instant.
func (t *Throttle) Status() Status {
    t.mu.Lock()
    defer t.mu.Unlock()

    now := t.now()
    st := Status{State: CoolingDown}
    if t.canSubmitLocked(now) {
        st.State = Ready
    }
    st.CooldownRemaining = t.cooldownLocked(now)
    st.SubmissionsRemaining = t.remainingLocked()
    st.RetryAfter = t.retryAfterLocked(now)
    return st
}

// LastSubmission returns the instant of the last accepted submission, or
// the zero time.
func (t *Throttle) LastSubmission() time.Time {
    t.mu.Lock()
    defer t.mu.Unlock()
    return t.last
}

func (t *Throttle) canSubmitLocked(now time.Time) bool {
    t.purgeLocked(now)
    if !t.last.IsZero() && now.Sub(t.last) < t.opts.MinInterval {
        return false
    }
    return len(t.timestamps) < t.opts.MaxSubmissions
}

// purgeLocked drops instants older than now - TimeWindow. An instant exactly
// TimeWindow old is kept.
func (t *Throttle) purgeLocked(now time.Time) {
    cutoff := now.Add(-t.opts.TimeWindow)
    i := 0
    for i < len(t.timestamps) && t.timestamps[i].Before(cutoff) {
        i++
    }
    if i == 0 {
        return
    }
    n := copy(t.timestamps, t.timestamps[i:])
    t.timestamps = t.timestamps[:n]
}

func (t *Throttle) cooldownLocked(now time.Time) time.Duration {
    if t.last.IsZero() {
        return 0
    }
    left := t.opts.MinInterval - now.Sub(t.last)
    if left < 0 {
        return 0
    }
    return left
}

func (t *Throttle) remainingLocked() int {
    left := t.opts.MaxSubmissions - len(t.timestamps)
    if left < 0 {
        return 0
    }
    return left
}

func (t *Throttle) retryAfterLocked(now time.Time) time.Duration {
    wait := t.cooldownLocked(now)
    if len(t.timestamps) >= t.opts.MaxSubmissions && t.opts.MaxSubmissions > 0 {
        // the slot frees once the oldest counted instant leaves the window
        idx := len(t.timestamps) - t.opts.MaxSubmissions
        free := t.timestamps[idx].Add(t.opts.TimeWindow).Sub(now) + time.Millisecond
        if free > wait {
            wait = free
        }
    }
    return wait
}

func (t *Throttle) resetLocked() {
    t.timestamps = nil
    t.last = time.Time{}
}
