package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/realtime"
)

// ListBookings: GET /v1/admin/bookings?status=&limit=
func (h *AdminHandler) ListBookings(c echo.Context) error {
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
    switch status {
    case "", model.BookingPending, model.BookingConfirmed, model.BookingCancelled:
    default:
        return badRequest(c, "unknown status")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    list, err := h.Bookings.List(ctx, status, queryLimit(c, 100, 500))
    if err != nil {
        return storeError(c, h.Log, "list bookings", err)
    }
    return c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) GetBooking(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    b, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        return storeError(c, h.Log, "load booking", err)
    }
    return c.JSON(http.StatusOK, b)
}

type bookingStatusReq struct {
    Status string `json:"status"`
}

// UpdateBookingStatus: PATCH /v1/admin/bookings/:id {status}.  Moves that
// the booking lifecycle does not allow answer 409.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    var req bookingStatusReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    if status != model.BookingConfirmed && status != model.BookingCancelled {
        return badRequest(c, "status must be CONFIRMED or CANCELLED")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    b, err := h.Bookings.UpdateStatus(ctx, id, status)
    if err != nil {
        return storeError(c, h.Log, "update booking", err)
    }
    h.changed("bookings", realtime.ActionUpdated, id, false)
    return c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) DeleteBooking(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return badRequest(c, "invalid id")
    }
    ctx, cancel := dbCtx(c)
    defer cancel()
    if err := h.Bookings.Delete(ctx, id); err != nil {
        return storeError(c, h.Log, "delete booking", err)
    }
    h.changed("bookings", realtime.ActionDeleted, id, false)
    return c.NoContent(http.StatusNoContent)
}
