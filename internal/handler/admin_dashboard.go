package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/throttle"
)

type throttleRow struct {
    Form string `json:"form"`
    throttle.Counters
}

type dashboardResp struct {
    Bookings  map[string]int64       `json:"bookings"`
    Analytics model.AnalyticsSummary `json:"analytics"`
    Throttle  []throttleRow          `json:"throttle"`
}

// Dashboard: GET /v1/admin/dashboard?days=30.  Throttle totals are best
// effort and come back empty when the stats backend fails.
func (h *AdminHandler) Dashboard(c echo.Context) error {
    days := 30
    if n, err := strconv.Atoi(c.QueryParam("days")); err == nil && n > 0 && n <= 365 {
        days = n
    }
    ctx, cancel := dbCtx(c)
    defer cancel()

    counts, err := h.Bookings.CountByStatus(ctx)
    if err != nil {
        return storeError(c, h.Log, "count bookings", err)
    }
    for _, s := range []string{model.BookingPending, model.BookingConfirmed, model.BookingCancelled} {
        if _, ok := counts[s]; !ok {
            counts[s] = 0
        }
    }
    summary, err := h.Analytics.Summary(ctx, days, 10)
    if err != nil {
        return storeError(c, h.Log, "analytics summary", err)
    }

    rows := []throttleRow{}
    if h.Stats != nil {
        if totals, err := h.Stats.Totals(ctx); err == nil {
            for _, form := range throttle.Forms(totals) {
                rows = append(rows, throttleRow{Form: form, Counters: totals[form]})
            }
        } else {
            h.Log.Warn("throttle totals unavailable", zap.Error(err))
        }
    }
    return c.JSON(http.StatusOK, dashboardResp{Bookings: counts, Analytics: summary, Throttle: rows})
}

// ReleaseThrottle: DELETE /v1/admin/throttles/:form/:visitor.  Lifts the
// submission throttle held for one visitor, e.g. after a support request.
func (h *AdminHandler) ReleaseThrottle(c echo.Context) error {
    if h.Throttles == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "throttles unavailable"})
    }
    form := c.Param("form")
    if !h.Throttles.Known(form) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown form"})
    }
    visitor := c.Param("visitor")
    if !h.Throttles.Release(form, visitor) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    h.Log.Info("throttle released", zap.String("form", form), zap.String("visitor", visitor))
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListContacts(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Messages.ListContacts(ctx, queryLimit(c, 100, 500))
    if err != nil {
        return storeError(c, h.Log, "list contacts", err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ListInquiries(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Messages.ListInquiries(ctx, queryLimit(c, 100, 500))
    if err != nil {
        return storeError(c, h.Log, "list inquiries", err)
    }
    return c.JSON(http.StatusOK, list)
}
