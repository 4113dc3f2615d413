package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/digital-services-site/internal/handler"
    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/model"
)

// RegisterAdmin registers the admin console under /v1/admin.  EDITOR
// manages the catalog and content; everything else is ADMIN only.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
    staff := e.Group("/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleEditor),
    )

    // ---- Catalog ----
    staff.GET("/services", h.ListServices)
    staff.POST("/services", h.CreateService)
    staff.PUT("/services/:id", h.UpdateService)
    staff.DELETE("/services/:id", h.DeleteService)

    // ---- Blog ----
    staff.GET("/posts", h.ListPosts)
    staff.POST("/posts", h.SavePost)
    staff.PUT("/posts/:id", h.SavePost)
    staff.DELETE("/posts/:id", h.DeletePost)

    // ---- Careers ----
    staff.GET("/careers", h.ListCareers)
    staff.POST("/careers", h.SaveCareer)
    staff.PUT("/careers/:id", h.SaveCareer)
    staff.DELETE("/careers/:id", h.DeleteCareer)

    // ---- Settings ----
    staff.GET("/settings", h.Settings)
    staff.PUT("/settings", h.UpdateSettings)
    staff.DELETE("/settings/:key", h.DeleteSetting)

    // live change feed; browsers pass ?access_token= on the handshake
    staff.GET("/live", h.Live)

    admin := staff.Group("", middleware.RequireRole(model.RoleAdmin))

    // ---- Bookings ----
    admin.GET("/bookings", h.ListBookings)
    admin.GET("/bookings/:id", h.GetBooking)
    admin.PATCH("/bookings/:id", h.UpdateBookingStatus)
    admin.DELETE("/bookings/:id", h.DeleteBooking)

    // ---- Users ----
    admin.GET("/users", h.ListUsers)
    admin.PATCH("/users/:id", h.UpdateUser)

    // ---- Messages ----
    admin.GET("/contacts", h.ListContacts)
    admin.GET("/inquiries", h.ListInquiries)

    admin.GET("/dashboard", h.Dashboard)
    admin.DELETE("/throttles/:form/:visitor", h.ReleaseThrottle)
}
