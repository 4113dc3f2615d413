package throttle

import (
    "context"
    "sort"
    "sync"
    "time"
)

// Event is one throttle decision taken for a form submission.
type Event struct {
    Form    string
    Visitor string
    Allowed bool
    At      time.Time
}

// Counters holds allowed / denied totals.
type Counters struct {
    Allowed int64 `json:"allowed"`
    Denied  int64 `json:"denied"`
}

// Recorder persists decisions. Callers treat errors as best effort.
type Recorder interface {
    Record(ctx context.Context, ev Event) error
}

// Reporter reads decision totals back, keyed by form.
type Reporter interface {
    Totals(ctx context.Context) (map[string]Counters, error)
}

// StatsStore records and reports.
type StatsStore interface {
    Recorder
    Reporter
}

// MemoryStats keeps counters in process memory. Counters never expire.
type MemoryStats struct {
    mu     sync.Mutex
    byForm map[string]Counters
}

func NewMemoryStats() *MemoryStats {
    return &MemoryStats{byForm: make(map[string]Counters)}
}

func (s *MemoryStats) Record(_ context.Context, ev Event) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    c := s.byForm[ev.Form]
    if ev.Allowed {
        c.Allowed++
    } else {
        c.Denied++
    }
    s.byForm[ev.Form] = c
    return nil
}

func (s *MemoryStats) Totals(_ context.Context) (map[string]Counters, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make(map[string]Counters, len(s.byForm))
    for k, v := range s.byForm {
        out[k] = v
    }
    return out, nil
}

// Forms returns the recorded form names in order.
func Forms(totals map[string]Counters) []string {
    out := make([]string, 0, len(totals))
    for k := range totals {
        out = append(out, k)
    }
    sort.Strings(out)
    return out
}
