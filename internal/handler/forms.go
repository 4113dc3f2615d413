package handler

import (
    "context"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/queue"
    "github.com/iliyamo/digital-services-site/internal/realtime"
    "github.com/iliyamo/digital-services-site/internal/service"
    "github.com/iliyamo/digital-services-site/internal/throttle"
)

// FormsHandler serves the public submission forms.  Every form passes the
// visitor's throttle for that form before anything is written.
type FormsHandler struct {
    Throttles *throttle.Registry
    Stats     throttle.Recorder
    Services  ServiceStore
    Bookings  BookingStore
    Messages  MessageStore
    Publisher service.Publisher
    Feed      realtime.Feed
    Log       *zap.Logger
    Now       func() time.Time
}

func (h *FormsHandler) now() time.Time {
    if h.Now != nil {
        return h.Now()
    }
    return time.Now()
}

func (h *FormsHandler) log() *zap.Logger {
    if h.Log == nil {
        return zap.NewNop()
    }
    return h.Log
}

// ----- DTOs -----

type contactReq struct {
    Name    string `json:"name"`
    Email   string `json:"email"`
    Subject string `json:"subject"`
    Message string `json:"message"`
}

type bookingReq struct {
    ServiceID    uint64 `json:"service_id"`
    CustomerName string `json:"customer_name"`
    Email        string `json:"email"`
    Phone        string `json:"phone"`
    ScheduledFor string `json:"scheduled_for"`
    Notes        string `json:"notes"`
}

type inquiryReq struct {
    ServiceID uint64 `json:"service_id"`
    Name      string `json:"name"`
    Email     string `json:"email"`
    Message   string `json:"message"`
}

type paymentReq struct {
    TicketNumber string `json:"ticket_number"`
    AmountCents  uint32 `json:"amount_cents"`
    Method       string `json:"method"`
    Reference    string `json:"reference"`
}

// statusResp is the throttle snapshot returned to the UI.
type statusResp struct {
    Form                 string `json:"form"`
    State                string `json:"state"`
    CooldownMS           int64  `json:"cooldown_ms"`
    SubmissionsRemaining int    `json:"submissions_remaining"`
    RetryAfterMS         int64  `json:"retry_after_ms"`
    MaxSubmissions       int    `json:"max_submissions"`
    MinIntervalMS        int64  `json:"min_interval_ms"`
    TimeWindowMS         int64  `json:"time_window_ms"`
    LastSubmissionAt     string `json:"last_submission_at,omitempty"`
}

const (
    maxNameLen    = 120
    maxMessageLen = 5000
)

func trimAll(ss ...*string) {
    for _, s := range ss {
        *s = strings.TrimSpace(*s)
    }
}

// ----- throttle plumbing -----

// gate is called once input is valid.  It consumes a slot, records the
// decision and, when the throttle refuses, writes the 429 response and
// returns a nil throttle.
func (h *FormsHandler) gate(c echo.Context, form string) (*throttle.Throttle, error) {
    visitor := middleware.VisitorID(c)
    th := h.Throttles.Get(form, visitor)
    ok := th.RecordSubmission()
    h.record(c.Request().Context(), form, visitor, ok)
    if ok {
        return th, nil
    }
    return nil, tooMany(c, th.Status())
}

// precheck rejects early, without consuming a slot, when the visitor is
// already throttled.  It saves the database lookups a blocked form would do.
func (h *FormsHandler) precheck(c echo.Context, form string) (bool, error) {
    visitor := middleware.VisitorID(c)
    th := h.Throttles.Get(form, visitor)
    if th.CanSubmit() {
        return true, nil
    }
    h.record(c.Request().Context(), form, visitor, false)
    return false, tooMany(c, th.Status())
}

func (h *FormsHandler) record(ctx context.Context, form, visitor string, allowed bool) {
    if h.Stats == nil {
        return
    }
    ev := throttle.Event{Form: form, Visitor: visitor, Allowed: allowed, At: h.now()}
    if err := h.Stats.Record(ctx, ev); err != nil {
        h.log().Warn("throttle stats not recorded", zap.String("form", form), zap.Error(err))
    }
}

func retrySeconds(d time.Duration) int {
    return int(math.Ceil(d.Seconds()))
}

func tooMany(c echo.Context, st throttle.Status) error {
    secs := retrySeconds(st.RetryAfter)
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    return c.JSON(http.StatusTooManyRequests, echo.Map{
        "error":                 "too_many_submissions",
        "cooldown_ms":           st.CooldownRemaining.Milliseconds(),
        "submissions_remaining": st.SubmissionsRemaining,
        "retry_after":           secs,
    })
}

func accepted(c echo.Context, id uint64, th *throttle.Throttle, extra echo.Map) error {
    st := th.Status()
    body := echo.Map{
        "id":                    id,
        "cooldown_ms":           st.CooldownRemaining.Milliseconds(),
        "submissions_remaining": st.SubmissionsRemaining,
    }
    for k, v := range extra {
        body[k] = v
    }
    return c.JSON(http.StatusCreated, body)
}

// ----- forms -----

// Contact stores a contact form message.
func (h *FormsHandler) Contact(c echo.Context) error {
    var req contactReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    trimAll(&req.Name, &req.Email, &req.Subject, &req.Message)
    req.Email = strings.ToLower(req.Email)
    switch {
    case req.Name == "" || len(req.Name) > maxNameLen:
        return badRequest(c, "name required")
    case !validEmail(req.Email):
        return badRequest(c, "valid email required")
    case req.Message == "" || len(req.Message) > maxMessageLen:
        return badRequest(c, "message required")
    case len(req.Subject) > 200:
        return badRequest(c, "subject too long")
    }

    th, err := h.gate(c, throttle.FormContact)
    if th == nil {
        return err
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    m := &model.ContactMessage{Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message}
    if err := h.Messages.CreateContact(ctx, m); err != nil {
        return storeError(c, h.Log, "save message", err)
    }

    service.PublishAsync(h.Publisher, h.Log, queue.ContactReceivedQueue, queue.ContactReceivedEvent{
        MessageID: m.ID, Name: m.Name, Email: m.Email, Subject: m.Subject,
        ReceivedAt: h.now().UTC().Format(time.RFC3339),
    })
    notify(h.Feed, h.Log, "contact_messages", realtime.ActionCreated, m.ID)
    return accepted(c, m.ID, th, nil)
}

// Booking creates a PENDING booking and returns its ticket number.
func (h *FormsHandler) Booking(c echo.Context) error {
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    trimAll(&req.CustomerName, &req.Email, &req.Phone, &req.ScheduledFor, &req.Notes)
    req.Email = strings.ToLower(req.Email)
    if req.ServiceID == 0 {
        return badRequest(c, "service_id required")
    }
    if req.CustomerName == "" || len(req.CustomerName) > maxNameLen {
        return badRequest(c, "customer_name required")
    }
    if !validEmail(req.Email) {
        return badRequest(c, "valid email required")
    }
    if len(req.Phone) > 40 || len(req.Notes) > maxMessageLen {
        return badRequest(c, "phone or notes too long")
    }
    at, err := time.Parse(time.RFC3339, req.ScheduledFor)
    if err != nil {
        return badRequest(c, "scheduled_for must be RFC3339")
    }
    if !at.After(h.now()) {
        return badRequest(c, "scheduled_for must be in the future")
    }

    if ok, err := h.precheck(c, throttle.FormBooking); !ok {
        return err
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    svc, err := h.Services.GetByID(ctx, req.ServiceID)
    if err != nil {
        return storeError(c, h.Log, "load service", err)
    }
    if !svc.IsActive {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "service not available"})
    }

    th, err := h.gate(c, throttle.FormBooking)
    if th == nil {
        return err
    }

    b := &model.Booking{
        ServiceID:    svc.ID,
        CustomerName: req.CustomerName,
        Email:        req.Email,
        Phone:        req.Phone,
        ScheduledFor: at.UTC(),
        Notes:        req.Notes,
    }
    if err := h.Bookings.Create(ctx, b); err != nil {
        return storeError(c, h.Log, "create booking", err)
    }

    service.PublishAsync(h.Publisher, h.Log, queue.BookingCreatedQueue, queue.BookingCreatedEvent{
        BookingID:    b.ID,
        TicketNumber: b.TicketNumber,
        ServiceID:    svc.ID,
        ServiceTitle: svc.Title,
        CustomerName: b.CustomerName,
        Email:        b.Email,
        ScheduledFor: b.ScheduledFor.Format(time.RFC3339),
        CreatedAt:    h.now().UTC().Format(time.RFC3339),
    })
    notify(h.Feed, h.Log, "bookings", realtime.ActionCreated, b.ID)
    return accepted(c, b.ID, th, echo.Map{"ticket_number": b.TicketNumber, "status": b.Status})
}

// ServiceInquiry stores a question about one service.
func (h *FormsHandler) ServiceInquiry(c echo.Context) error {
    var req inquiryReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    trimAll(&req.Name, &req.Email, &req.Message)
    req.Email = strings.ToLower(req.Email)
    switch {
    case req.ServiceID == 0:
        return badRequest(c, "service_id required")
    case req.Name == "" || len(req.Name) > maxNameLen:
        return badRequest(c, "name required")
    case !validEmail(req.Email):
        return badRequest(c, "valid email required")
    case req.Message == "" || len(req.Message) > maxMessageLen:
        return badRequest(c, "message required")
    }

    th, err := h.gate(c, throttle.FormServiceInquiry)
    if th == nil {
        return err
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    m := &model.ServiceInquiry{ServiceID: req.ServiceID, Name: req.Name, Email: req.Email, Message: req.Message}
    if err := h.Messages.CreateInquiry(ctx, m); err != nil {
        return storeError(c, h.Log, "save inquiry", err)
    }

    service.PublishAsync(h.Publisher, h.Log, queue.InquiryReceivedQueue, queue.InquiryReceivedEvent{
        InquiryID: m.ID, ServiceID: m.ServiceID, Name: m.Name, Email: m.Email,
        ReceivedAt: h.now().UTC().Format(time.RFC3339),
    })
    notify(h.Feed, h.Log, "service_inquiries", realtime.ActionCreated, m.ID)
    return accepted(c, m.ID, th, nil)
}

// Payment records a PENDING payment notice against a booking ticket.
func (h *FormsHandler) Payment(c echo.Context) error {
    var req paymentReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    trimAll(&req.TicketNumber, &req.Method, &req.Reference)
    req.Method = strings.ToLower(req.Method)
    switch {
    case req.TicketNumber == "":
        return badRequest(c, "ticket_number required")
    case req.AmountCents == 0:
        return badRequest(c, "amount_cents must be positive")
    case !model.PaymentMethods[req.Method]:
        return badRequest(c, "unsupported payment method")
    case len(req.Reference) > 120:
        return badRequest(c, "reference too long")
    }

    if ok, err := h.precheck(c, throttle.FormPayment); !ok {
        return err
    }

    ctx, cancel := dbCtx(c)
    defer cancel()
    b, err := h.Bookings.GetByTicket(ctx, req.TicketNumber)
    if err != nil {
        return storeError(c, h.Log, "load booking", err)
    }
    if b.Status == model.BookingCancelled {
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
    }

    th, err := h.gate(c, throttle.FormPayment)
    if th == nil {
        return err
    }

    p := &model.Payment{BookingID: b.ID, AmountCents: req.AmountCents, Method: req.Method, Reference: req.Reference}
    if err := h.Bookings.CreatePayment(ctx, p); err != nil {
        return storeError(c, h.Log, "record payment", err)
    }

    service.PublishAsync(h.Publisher, h.Log, queue.PaymentSubmittedQueue, queue.PaymentSubmittedEvent{
        PaymentID: p.ID, BookingID: b.ID, TicketNumber: b.TicketNumber,
        AmountCents: p.AmountCents, Method: p.Method,
        SubmittedAt: h.now().UTC().Format(time.RFC3339),
    })
    notify(h.Feed, h.Log, "payments", realtime.ActionCreated, p.ID)
    return accepted(c, p.ID, th, echo.Map{"status": p.Status, "ticket_number": b.TicketNumber})
}

// Status returns the visitor's throttle snapshot for one form without
// consuming a slot.
func (h *FormsHandler) Status(c echo.Context) error {
    form := c.Param("form")
    if !h.Throttles.Known(form) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown form"})
    }
    th := h.Throttles.Get(form, middleware.VisitorID(c))
    st := th.Status()
    o := th.Options()
    var last string
    if at := th.LastSubmission(); !at.IsZero() {
        last = at.UTC().Format(time.RFC3339)
    }
    return c.JSON(http.StatusOK, statusResp{
        Form:                 form,
        State:                st.State.String(),
        CooldownMS:           st.CooldownRemaining.Milliseconds(),
        SubmissionsRemaining: st.SubmissionsRemaining,
        RetryAfterMS:         st.RetryAfter.Milliseconds(),
        MaxSubmissions:       o.MaxSubmissions,
        MinIntervalMS:        o.MinInterval.Milliseconds(),
        TimeWindowMS:         o.TimeWindow.Milliseconds(),
        LastSubmissionAt:     last,
    })
}
