package middleware

// identity.go resolves who is calling: the signed-in user for admin routes
// and the anonymous visitor for forms and analytics.

import (
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

const (
    // VisitorCookie carries the anonymous visitor ID.
    VisitorCookie = "vid"
    // CtxVisitorID is the context key set by Visitor.
    CtxVisitorID = "visitor_id"

    visitorCookieTTL = 365 * 24 * time.Hour
)

// Visitor ensures every request carries a visitor ID.  A valid UUID in the
// vid cookie is reused; otherwise a new one is issued and set as cookie.
func Visitor(secure bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if ck, err := c.Cookie(VisitorCookie); err == nil {
                if id, err := uuid.Parse(ck.Value); err == nil {
                    c.Set(CtxVisitorID, id.String())
                    return next(c)
                }
            }
            id := uuid.NewString()
            c.SetCookie(&http.Cookie{
                Name:     VisitorCookie,
                Value:    id,
                Path:     "/",
                Expires:  time.Now().Add(visitorCookieTTL),
                HttpOnly: true,
                Secure:   secure,
                SameSite: http.SameSiteLaxMode,
            })
            c.Set(CtxVisitorID, id)
            return next(c)
        }
    }
}

// VisitorID returns the visitor ID set by Visitor, falling back to the
// client IP when the middleware did not run.
func VisitorID(c echo.Context) string {
    if v, ok := c.Get(CtxVisitorID).(string); ok && v != "" {
        return v
    }
    if ip := c.RealIP(); ip != "" {
        return "ip:" + ip
    }
    return ""
}

// currentUserID returns the authenticated user ID as a string, or "anon".
func currentUserID(c echo.Context) string {
    if v, ok := c.Get(CtxUserID).(uint64); ok && v != 0 {
        return strconv.FormatUint(v, 10)
    }
    return "anon"
}
