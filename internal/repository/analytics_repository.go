package repository

import (
    "context"
    "database/sql"
    "fmt"
    "time"

    "github.com/iliyamo/digital-services-site/internal/model"
)

// AnalyticsRepo records visitor events and computes the dashboard
// aggregates.
type AnalyticsRepo struct {
    db *sql.DB
}

func NewAnalyticsRepo(db *sql.DB) *AnalyticsRepo {
    return &AnalyticsRepo{db: db}
}

// Track stores ev and upserts the visitor session in one transaction.
// Only page views advance the session's page_views counter.
func (r *AnalyticsRepo) Track(ctx context.Context, ev *model.AnalyticsEvent, sess model.VisitorSession) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    now := ev.CreatedAt
    if now.IsZero() {
        now = time.Now().UTC()
        ev.CreatedAt = now
    }
    views := 0
    if ev.EventType == model.EventPageView {
        views = 1
    }
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO visitor_sessions (session_id, first_seen, last_seen, page_views, user_agent, ip_hash)
         VALUES (?, ?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE last_seen = VALUES(last_seen), page_views = page_views + VALUES(page_views)`,
        sess.SessionID, now, now, views, sess.UserAgent, sess.IPHash); err != nil {
        return fmt.Errorf("upsert session: %w", err)
    }
    res, err := tx.ExecContext(ctx,
        "INSERT INTO analytics_events (session_id, event_type, path, referrer, created_at) VALUES (?, ?, ?, ?, ?)",
        ev.SessionID, ev.EventType, ev.Path, ev.Referrer, now)
    if err != nil {
        return fmt.Errorf("insert event: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ev.ID = uint64(id)
    return tx.Commit()
}

// Summary aggregates the last `days` days of page views and the `top`
// most viewed paths in that period.
func (r *AnalyticsRepo) Summary(ctx context.Context, days, top int) (model.AnalyticsSummary, error) {
    var s model.AnalyticsSummary
    since := time.Now().UTC().AddDate(0, 0, -days)

    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analytics_events").Scan(&s.TotalEvents); err != nil {
        return s, fmt.Errorf("count events: %w", err)
    }
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visitor_sessions").Scan(&s.TotalSessions); err != nil {
        return s, fmt.Errorf("count sessions: %w", err)
    }

    rows, err := r.db.QueryContext(ctx,
        `SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COUNT(*) FROM analytics_events
         WHERE event_type = ? AND created_at >= ? GROUP BY day ORDER BY day`,
        model.EventPageView, since)
    if err != nil {
        return s, fmt.Errorf("daily views: %w", err)
    }
    s.Daily = make([]model.DailyCount, 0, days)
    for rows.Next() {
        var d model.DailyCount
        if err := rows.Scan(&d.Day, &d.Count); err != nil {
            rows.Close()
            return s, err
        }
        s.Daily = append(s.Daily, d)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return s, err
    }

    rows, err = r.db.QueryContext(ctx,
        `SELECT path, COUNT(*) AS n FROM analytics_events
         WHERE event_type = ? AND created_at >= ? GROUP BY path ORDER BY n DESC, path LIMIT ?`,
        model.EventPageView, since, top)
    if err != nil {
        return s, fmt.Errorf("top paths: %w", err)
    }
    defer rows.Close()
    s.TopPaths = make([]model.PathCount, 0, top)
    for rows.Next() {
        var p model.PathCount
        if err := rows.Scan(&p.Path, &p.Count); err != nil {
            return s, err
        }
        s.TopPaths = append(s.TopPaths, p)
    }
    return s, rows.Err()
}
