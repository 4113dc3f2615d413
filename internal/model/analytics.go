package model

import "time"

// Analytics event types accepted by the tracker.
const (
    EventPageView   = "page_view"
    EventClick      = "click"
    EventFormSubmit = "form_submit"
)

func ValidEventType(t string) bool {
    return t == EventPageView || t == EventClick || t == EventFormSubmit
}

// AnalyticsEvent is one tracked visitor interaction.
type AnalyticsEvent struct {
    ID        uint64    `json:"id"`
    SessionID string    `json:"session_id"`
    EventType string    `json:"event_type"`
    Path      string    `json:"path"`
    Referrer  string    `json:"referrer,omitempty"`
    CreatedAt time.Time `json:"created_at"`
}

// VisitorSession aggregates the events of one visitor cookie.  The client
// IP is kept only as a salted SHA-256 hash.
type VisitorSession struct {
    SessionID string    `json:"session_id"`
    FirstSeen time.Time `json:"first_seen"`
    LastSeen  time.Time `json:"last_seen"`
    PageViews uint32    `json:"page_views"`
    UserAgent string    `json:"user_agent"`
    IPHash    string    `json:"-"`
}

// DailyCount is the number of page views on one UTC day.
type DailyCount struct {
    Day   string `json:"day"`
    Count int64  `json:"count"`
}

// PathCount is the number of page views of one path.
type PathCount struct {
    Path  string `json:"path"`
    Count int64  `json:"count"`
}

// AnalyticsSummary feeds the control center dashboard.
type AnalyticsSummary struct {
    TotalEvents   int64        `json:"total_events"`
    TotalSessions int64        `json:"total_sessions"`
    Daily         []DailyCount `json:"daily"`
    TopPaths      []PathCount  `json:"top_paths"`
}
