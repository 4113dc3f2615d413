package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/realtime"
)

type serviceReq struct {
    Slug        string   `json:"slug"`
    Category    string   `json:"category"`
    Title       string   `json:"title"`
    Summary     string   `json:"summary"`
    Description string   `json:"description"`
    PriceCents  uint32   `json:"price_cents"`
    ROIPercent  *float64 `json:"roi_percent"`
    IsActive    *bool    `json:"is_active"`
}

func (r *serviceReq) toModel() (*model.Service, string) {
    r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
    r.Category = strings.ToLower(strings.TrimSpace(r.Category))
    r.Title = strings.TrimSpace(r.Title)
    switch {
    case !slugRe.MatchString(r.Slug) || len(r.Slug) > 120:
        return nil, "slug must be lowercase letters, digits and dashes"
    case !model.ValidCategory(r.Category):
        return nil, "unknown category"
    case r.Title == "" || len(r.Title) > 200:
        return nil, "title required"
    }
    if r.ROIPercent != nil {
        if r.Category != model.CategoryInvestment {
            return nil, "roi_percent only applies to investment services"
        }
        if *r.ROIPercent <= 0 || *r.ROIPercent > 100 {
            return nil, "roi_percent must be in (0, 100]"
        }
    }
    active := true
    if r.IsActive != nil {
        active = *r.IsActive
    }
    return &model.Service{
        Slug:        r.Slug,
        Category:    r.Category,
        Title:       r.Title,
        Summary:     strings.TrimSpace(r.Summary),
        Description: r.Description,
        PriceCents:  r.PriceCents,
        ROIPercent:  r.ROIPercent,
        IsActive:    active,
    }, ""
}

// ListServices: GET /v1/admin/services, inactive included.
func (h *AdminHandler) ListServices(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Services.List(ctx, strings.ToLower(c.QueryParam("category")), false)
    if err != nil {
        return storeError(c, h.Log, "list services", err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) CreateService(c echo.Context) error {
    var req serviceReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    s, msg := req.toModel()
    if s == nil {
        return badRequest(c, msg)
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Services.Create(ctx, s); err != nil {
        return storeError(c, h.Log, "create service", err)
    }
    h.changed("services", realtime.ActionCreated, s.ID, true)
    return c.JSON(http.StatusCreated, s)
}

func (h *AdminHandler) UpdateService(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    var req serviceReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    s, msg := req.toModel()
    if s == nil {
        return badRequest(c, msg)
    }
    s.ID = id
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Services.Update(ctx, s); err != nil {
        return storeError(c, h.Log, "update service", err)
    }
    h.changed("services", realtime.ActionUpdated, id, true)
    return c.JSON(http.StatusOK, s)
}

// DeleteService answers 409 while bookings still reference the service.
func (h *AdminHandler) DeleteService(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Services.Delete(ctx, id); err != nil {
        return storeError(c, h.Log, "delete service", err)
    }
    h.changed("services", realtime.ActionDeleted, id, true)
    return c.NoContent(http.StatusNoContent)
}
