package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/realtime"
)

type postReq struct {
    Slug        string `json:"slug"`
    Title       string `json:"title"`
    Excerpt     string `json:"excerpt"`
    Body        string `json:"body"`
    IsPublished bool   `json:"is_published"`
}

// ListPosts returns drafts and published posts alike.
func (h *AdminHandler) ListPosts(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Content.ListPosts(ctx, false, queryLimit(c, 100, 500))
    if err != nil {
        return storeError(c, h.Log, "list posts", err)
    }
    return c.JSON(http.StatusOK, list)
}

// SavePost serves both POST /posts and PUT /posts/:id.
func (h *AdminHandler) SavePost(c echo.Context) error {
    var id uint64
    if c.Param("id") != "" {
        var ok bool
        if id, ok = parseID(c, "id"); !ok {
            return badRequest(c, "invalid id")
        }
    }
    var req postReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    p := &model.BlogPost{
        ID:          id,
        Slug:        strings.ToLower(strings.TrimSpace(req.Slug)),
        Title:       strings.TrimSpace(req.Title),
        Excerpt:     strings.TrimSpace(req.Excerpt),
        Body:        req.Body,
        IsPublished: req.IsPublished,
    }
    if !slugRe.MatchString(p.Slug) || len(p.Slug) > 160 {
        return badRequest(c, "slug must be lowercase letters, digits and dashes")
    }
    if p.Title == "" || len(p.Title) > 200 {
        return badRequest(c, "title required")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Content.SavePost(ctx, p); err != nil {
        return storeError(c, h.Log, "save post", err)
    }
    status, action := http.StatusOK, realtime.ActionUpdated
    if id == 0 {
        status, action = http.StatusCreated, realtime.ActionCreated
    }
    h.changed("blog_posts", action, p.ID, true)
    return c.JSON(status, p)
}

func (h *AdminHandler) DeletePost(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Content.DeletePost(ctx, id); err != nil {
        return storeError(c, h.Log, "delete post", err)
    }
    h.changed("blog_posts", realtime.ActionDeleted, id, true)
    return c.NoContent(http.StatusNoContent)
}

type careerReq struct {
    Title          string `json:"title"`
    Department     string `json:"department"`
    Location       string `json:"location"`
    EmploymentType string `json:"employment_type"`
    Description    string `json:"description"`
    IsOpen         *bool  `json:"is_open"`
}

func (h *AdminHandler) ListCareers(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Content.ListCareers(ctx, false)
    if err != nil {
        return storeError(c, h.Log, "list careers", err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) SaveCareer(c echo.Context) error {
    var id uint64
    if c.Param("id") != "" {
        var ok bool
        if id, ok = parseID(c, "id"); !ok {
            return badRequest(c, "invalid id")
        }
    }
    var req careerReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    open := true
    if req.IsOpen != nil {
        open = *req.IsOpen
    }
    cr := &model.Career{
        ID:             id,
        Title:          strings.TrimSpace(req.Title),
        Department:     strings.TrimSpace(req.Department),
        Location:       strings.TrimSpace(req.Location),
        EmploymentType: strings.TrimSpace(req.EmploymentType),
        Description:    req.Description,
        IsOpen:         open,
    }
    if cr.Title == "" || len(cr.Title) > 200 {
        return badRequest(c, "title required")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Content.SaveCareer(ctx, cr); err != nil {
        return storeError(c, h.Log, "save career", err)
    }
    status, action := http.StatusOK, realtime.ActionUpdated
    if id == 0 {
        status, action = http.StatusCreated, realtime.ActionCreated
    }
    h.changed("careers", action, cr.ID, true)
    return c.JSON(status, cr)
}

func (h *AdminHandler) DeleteCareer(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Content.DeleteCareer(ctx, id); err != nil {
        return storeError(c, h.Log, "delete career", err)
    }
    h.changed("careers", realtime.ActionDeleted, id, true)
    return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) Settings(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    kv, err := h.Content.Settings(ctx)
    if err != nil {
        return storeError(c, h.Log, "load settings", err)
    }
    return c.JSON(http.StatusOK, kv)
}

// UpdateSettings: PUT /v1/admin/settings with a flat string map.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
    var kv map[string]string
    if err := c.Bind(&kv); err != nil {
        return badRequest(c, "invalid body")
    }
    if len(kv) == 0 {
        return badRequest(c, "no settings given")
    }
    for k := range kv {
        if k == "" || len(k) > 100 {
            return badRequest(c, "invalid setting key")
        }
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Content.UpsertSettings(ctx, kv); err != nil {
        return storeError(c, h.Log, "save settings", err)
    }
    h.changed("site_settings", realtime.ActionUpdated, 0, true)
    return h.Settings(c)
}

func (h *AdminHandler) DeleteSetting(c echo.Context) error {
    key := c.Param("key")
    if key == "" {
        return badRequest(c, "invalid setting key")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Content.DeleteSetting(ctx, key); err != nil {
        return storeError(c, h.Log, "delete setting", err)
    }
    h.changed("site_settings", realtime.ActionDeleted, 0, true)
    return c.NoContent(http.StatusNoContent)
}
