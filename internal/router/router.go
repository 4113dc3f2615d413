package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/digital-services-site/internal/handler"
    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/model"
)

// RegisterRoutes registers the probes.  /healthz only says the process is
// up; /readyz also pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health)
    e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// profile endpoint /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // rotates the refresh token
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    // accepts a refresh_token body or a Bearer header
    g.POST("/logout", a.Logout)

    e.GET("/v1/me", a.Me,
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleEditor, model.RoleCustomer))
}

// RegisterPublic registers the read-only catalog.  cache wraps every route;
// pass nil to serve uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
    var mw []echo.MiddlewareFunc
    if cache != nil {
        mw = append(mw, cache)
    }
    g := e.Group("/v1", mw...)
    g.GET("/services", p.ListServices)
    g.GET("/services/:slug", p.GetService)
    g.GET("/blog", p.ListPosts)
    g.GET("/blog/:slug", p.GetPost)
    g.GET("/careers", p.ListCareers)
    g.GET("/settings", p.Settings)
    g.GET("/investments/calculate", p.Calculate)

    // booking status changes often and is looked up by its owner only
    e.GET("/v1/bookings/:ticket", p.GetBooking)
}

// RegisterForms registers the throttled submission forms and the analytics
// tracker.  Both identify the caller by the visitor cookie.
func RegisterForms(e *echo.Echo, f *handler.FormsHandler, a *handler.AnalyticsHandler, secureCookie bool) {
    g := e.Group("/v1", middleware.Visitor(secureCookie))
    g.POST("/forms/contact", f.Contact)
    g.POST("/forms/booking", f.Booking)
    g.POST("/forms/service_inquiry", f.ServiceInquiry)
    g.POST("/forms/payment", f.Payment)
    g.GET("/forms/:form/status", f.Status)

    g.POST("/analytics/track", a.Track)
}
