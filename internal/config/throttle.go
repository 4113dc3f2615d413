package config

import (
    "strings"
    "time"

    "github.com/iliyamo/digital-services-site/internal/throttle"
)

// ThrottleConfig carries the per-form submission throttle presets and the
// registry housekeeping settings.
type ThrottleConfig struct {
    Presets      map[string]throttle.Options
    IdleTTL      time.Duration
    CleanupEvery time.Duration
    StatsPrefix  string
}

// LoadThrottleConfig starts from throttle.DefaultPresets and applies
// THROTTLE_<FORM>_MIN_INTERVAL, THROTTLE_<FORM>_MAX_SUBMISSIONS and
// THROTTLE_<FORM>_TIME_WINDOW overrides, e.g. THROTTLE_CONTACT_MIN_INTERVAL=5s.
func LoadThrottleConfig() ThrottleConfig {
    presets := throttle.DefaultPresets()
    for form, o := range presets {
        p := "THROTTLE_" + strings.ToUpper(form) + "_"
        o.MinInterval = envDur(p+"MIN_INTERVAL", o.MinInterval)
        o.MaxSubmissions = envInt(p+"MAX_SUBMISSIONS", o.MaxSubmissions)
        o.TimeWindow = envDur(p+"TIME_WINDOW", o.TimeWindow)
        presets[form] = o
    }
    return ThrottleConfig{
        Presets:      presets,
        IdleTTL:      envDur("THROTTLE_IDLE_TTL", 15*time.Minute),
        CleanupEvery: envDur("THROTTLE_CLEANUP_EVERY", 2*time.Minute),
        StatsPrefix:  envStr("THROTTLE_STATS_PREFIX", "throttle:stats"),
    }
}
