package middleware

import (
    "context"
    "sync"
    "time"

    "golang.org/x/time/rate"
)

// LocalLimiterStore keeps one token bucket per key in process memory.  It
// backs the rate limit middleware when Redis is not available.
type LocalLimiterStore struct {
    mu      sync.Mutex
    entries map[string]*limiterEntry
    rps     rate.Limit
    burst   int
    idleTTL time.Duration
}

type limiterEntry struct {
    lim      *rate.Limiter
    lastSeen time.Time
}

func NewLocalLimiterStore(rps float64, burst int, idleTTL time.Duration) *LocalLimiterStore {
    if idleTTL <= 0 {
        idleTTL = 15 * time.Minute
    }
    return &LocalLimiterStore{
        entries: make(map[string]*limiterEntry),
        rps:     rate.Limit(rps),
        burst:   burst,
        idleTTL: idleTTL,
    }
}

// Get returns the limiter for key, creating it on first use.
func (s *LocalLimiterStore) Get(key string) *rate.Limiter {
    now := time.Now()
    s.mu.Lock()
    defer s.mu.Unlock()
    if ent, ok := s.entries[key]; ok {
        ent.lastSeen = now
        return ent.lim
    }
    lim := rate.NewLimiter(s.rps, s.burst)
    s.entries[key] = &limiterEntry{lim: lim, lastSeen: now}
    return lim
}

// Cleanup forgets limiters idle longer than the TTL.
func (s *LocalLimiterStore) Cleanup() int {
    cutoff := time.Now().Add(-s.idleTTL)
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for k, ent := range s.entries {
        if ent.lastSeen.Before(cutoff) {
            delete(s.entries, k)
            n++
        }
    }
    return n
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (s *LocalLimiterStore) StartJanitor(ctx context.Context, every time.Duration) {
    if every <= 0 {
        return
    }
    t := time.NewTicker(every)
    go func() {
        defer t.Stop()
        for {
            select {
            case <-ctx.Done():
                return
            case <-t.C:
                s.Cleanup()
            }
        }
    }()
}
