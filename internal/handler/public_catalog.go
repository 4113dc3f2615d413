package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/invest"
    "github.com/iliyamo/digital-services-site/internal/model"
)

// PublicHandler serves the read-only catalog and content pages.  Nothing
// here requires authentication.
type PublicHandler struct {
    Services ServiceStore
    Content  ContentStore
    Bookings BookingStore
    Log      *zap.Logger
}

// ListServices: GET /v1/services?category=
func (h *PublicHandler) ListServices(c echo.Context) error {
    category := strings.ToLower(strings.TrimSpace(c.QueryParam("category")))
    if category != "" && !model.ValidCategory(category) {
        return badRequest(c, "unknown category")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Services.List(ctx, category, true)
    if err != nil {
        return storeError(c, h.Log, "list services", err)
    }
    return c.JSON(http.StatusOK, list)
}

// GetService: GET /v1/services/:slug.  Inactive services are hidden.
func (h *PublicHandler) GetService(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    s, err := h.Services.GetBySlug(ctx, c.Param("slug"))
    if err != nil {
        return storeError(c, h.Log, "load service", err)
    }
    if !s.IsActive {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    return c.JSON(http.StatusOK, s)
}

// ListPosts: GET /v1/blog?limit=
func (h *PublicHandler) ListPosts(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    posts, err := h.Content.ListPosts(ctx, true, queryLimit(c, 10, 50))
    if err != nil {
        return storeError(c, h.Log, "list posts", err)
    }
    return c.JSON(http.StatusOK, posts)
}

// GetPost: GET /v1/blog/:slug.  Drafts are hidden.
func (h *PublicHandler) GetPost(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    p, err := h.Content.GetPostBySlug(ctx, c.Param("slug"))
    if err != nil {
        return storeError(c, h.Log, "load post", err)
    }
    if !p.IsPublished {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    return c.JSON(http.StatusOK, p)
}

// ListCareers: GET /v1/careers
func (h *PublicHandler) ListCareers(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Content.ListCareers(ctx, true)
    if err != nil {
        return storeError(c, h.Log, "list careers", err)
    }
    return c.JSON(http.StatusOK, list)
}

// Settings: GET /v1/settings
func (h *PublicHandler) Settings(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    kv, err := h.Content.Settings(ctx)
    if err != nil {
        return storeError(c, h.Log, "load settings", err)
    }
    return c.JSON(http.StatusOK, kv)
}

// GetBooking: GET /v1/bookings/:ticket returns the public view of a
// booking.  Contact details are not included.
func (h *PublicHandler) GetBooking(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    b, err := h.Bookings.GetByTicket(ctx, c.Param("ticket"))
    if err != nil {
        return storeError(c, h.Log, "load booking", err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ticket_number": b.TicketNumber,
        "service_id":    b.ServiceID,
        "status":        b.Status,
        "scheduled_for": b.ScheduledFor.UTC().Format(time.RFC3339),
    })
}

// Calculate: GET /v1/investments/calculate?amount_cents=&months=&roi_percent=
// or &service_id= to use the ROI of an investment service.
func (h *PublicHandler) Calculate(c echo.Context) error {
    amount, err := strconv.ParseInt(c.QueryParam("amount_cents"), 10, 64)
    if err != nil {
        return badRequest(c, "amount_cents required")
    }
    months, err := strconv.Atoi(c.QueryParam("months"))
    if err != nil {
        return badRequest(c, "months required")
    }

    var roi float64
    if raw := c.QueryParam("roi_percent"); raw != "" {
        if roi, err = strconv.ParseFloat(raw, 64); err != nil {
            return badRequest(c, "invalid roi_percent")
        }
    } else if raw := c.QueryParam("service_id"); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil || id == 0 {
            return badRequest(c, "invalid service_id")
        }
        ctx, cancel := dbCtx(c)
        defer cancel()
        s, err := h.Services.GetByID(ctx, id)
        if err != nil {
            return storeError(c, h.Log, "load service", err)
        }
        if s.Category != model.CategoryInvestment || s.ROIPercent == nil || !s.IsActive {
            return badRequest(c, "service has no roi")
        }
        roi = *s.ROIPercent
    } else {
        return badRequest(c, "roi_percent or service_id required")
    }

    p, err := invest.Calculate(amount, roi, months)
    if err != nil {
        if errors.Is(err, invest.ErrAmount) || errors.Is(err, invest.ErrROI) || errors.Is(err, invest.ErrMonths) {
            return badRequest(c, err.Error())
        }
        return err
    }
    return c.JSON(http.StatusOK, p)
}
