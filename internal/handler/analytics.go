package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/utils"
)

// AnalyticsHandler ingests visitor events from the site's tracker script.
type AnalyticsHandler struct {
    Store AnalyticsStore
    Salt  string
    Log   *zap.Logger
}

type trackReq struct {
    EventType string `json:"event_type"`
    Path      string `json:"path"`
    Referrer  string `json:"referrer"`
}

const maxPathLen = 512

// Track: POST /v1/analytics/track.  Answers 204; the body is never echoed.
func (h *AnalyticsHandler) Track(c echo.Context) error {
    var req trackReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.EventType = strings.ToLower(strings.TrimSpace(req.EventType))
    req.Path = strings.TrimSpace(req.Path)
    req.Referrer = strings.TrimSpace(req.Referrer)
    if !model.ValidEventType(req.EventType) {
        return badRequest(c, "unknown event_type")
    }
    if req.Path == "" || !strings.HasPrefix(req.Path, "/") || len(req.Path) > maxPathLen {
        return badRequest(c, "path must be an absolute site path")
    }
    if len(req.Referrer) > maxPathLen {
        req.Referrer = req.Referrer[:maxPathLen]
    }

    sid := middleware.VisitorID(c)
    ua := c.Request().UserAgent()
    if len(ua) > 255 {
        ua = ua[:255]
    }
    ev := &model.AnalyticsEvent{
        SessionID: sid,
        EventType: req.EventType,
        Path:      req.Path,
        Referrer:  req.Referrer,
        CreatedAt: time.Now().UTC(),
    }
    sess := model.VisitorSession{SessionID: sid, UserAgent: ua, IPHash: utils.HashIP(h.Salt, c.RealIP())}

    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Store.Track(ctx, ev, sess); err != nil {
        return storeError(c, h.Log, "track event", err)
    }
    return c.NoContent(http.StatusNoContent)
}
