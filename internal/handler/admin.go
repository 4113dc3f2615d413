package handler

import (
    "context"
    "regexp"

    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/realtime"
    "github.com/iliyamo/digital-services-site/internal/throttle"
)

// AdminHandler backs the admin console.  Route groups decide which role may
// reach which method; handlers themselves only check ownership rules such
// as "an admin cannot demote itself".
type AdminHandler struct {
    Services  ServiceStore
    Bookings  BookingStore
    Content   ContentStore
    Messages  MessageStore
    Users     UserStore
    Tokens    TokenStore
    Analytics AnalyticsStore
    Stats     throttle.Reporter
    Throttles *throttle.Registry
    Feed      realtime.Feed
    // Purge drops cached public responses after catalog or content writes.
    Purge func(ctx context.Context)
    Log   *zap.Logger
}

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// changed publishes a change event and invalidates public caches.
func (h *AdminHandler) changed(table, action string, id uint64, public bool) {
    notify(h.Feed, h.Log, table, action, id)
    if public && h.Purge != nil {
        h.Purge(context.Background())
    }
}
