package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/realtime"
)

func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Users.List(ctx)
    if err != nil {
        return storeError(c, h.Log, "list users", err)
    }
    return c.JSON(http.StatusOK, list)
}

type userUpdateReq struct {
    Role     *string `json:"role"`
    IsActive *bool   `json:"is_active"`
}

// UpdateUser: PATCH /v1/admin/users/:id {role?, is_active?}.  An admin may
// not change its own role or deactivate itself.  Deactivation revokes every
// refresh token of the account.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    var req userUpdateReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if req.Role == nil && req.IsActive == nil {
        return badRequest(c, "nothing to update")
    }
    var role string
    if req.Role != nil {
        role = strings.ToUpper(strings.TrimSpace(*req.Role))
        if !model.ValidRole(role) {
            return badRequest(c, "unknown role")
        }
    }
    if self, err := getUserID(c); err == nil && self == id {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot modify own account"})
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    if role != "" {
        if err := h.Users.UpdateRole(ctx, id, role); err != nil {
            return storeError(c, h.Log, "update role", err)
        }
    }
    if req.IsActive != nil {
        if err := h.Users.SetActive(ctx, id, *req.IsActive); err != nil {
            return storeError(c, h.Log, "update user", err)
        }
        if !*req.IsActive && h.Tokens != nil {
            if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
                h.Log.Warn("revoke tokens failed", zap.Uint64("user_id", id), zap.Error(err))
            }
        }
    }
    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return storeError(c, h.Log, "load user", err)
    }
    h.changed("users", realtime.ActionUpdated, id, false)
    return c.JSON(http.StatusOK, u)
}
