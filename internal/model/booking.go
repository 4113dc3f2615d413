package model

import "time"

// Booking statuses.  A booking starts PENDING and is either CONFIRMED or
// CANCELLED by staff; a CONFIRMED booking may still be CANCELLED.
const (
    BookingPending   = "PENDING"
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
)

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
    switch from {
    case BookingPending:
        return to == BookingConfirmed || to == BookingCancelled
    case BookingConfirmed:
        return to == BookingCancelled
    }
    return false
}

// Booking records a visitor's request for a service appointment.  The
// TicketNumber is the public handle given back to the visitor.
//
// Fields:
//  ID           – primary key identifier.
//  TicketNumber – public reference (TKT-XXXXXXXX).
//  ServiceID    – booked catalog service.
//  ScheduledFor – requested appointment time (UTC).
//  Status       – PENDING, CONFIRMED or CANCELLED.
type Booking struct {
    ID           uint64    `json:"id"`
    TicketNumber string    `json:"ticket_number"`
    ServiceID    uint64    `json:"service_id"`
    CustomerName string    `json:"customer_name"`
    Email        string    `json:"email"`
    Phone        string    `json:"phone,omitempty"`
    ScheduledFor time.Time `json:"scheduled_for"`
    Notes        string    `json:"notes,omitempty"`
    Status       string    `json:"status"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// Payment methods accepted by the payment form.
var PaymentMethods = map[string]bool{
    "card":          true,
    "bank_transfer": true,
    "crypto":        true,
    "paypal":        true,
}

// PaymentPending is the only status this system assigns to payments.
const PaymentPending = "PENDING"

// Payment is a payment notice submitted against a booking.  It is recorded
// as PENDING; settlement happens outside this system.
type Payment struct {
    ID          uint64    `json:"id"`
    BookingID   uint64    `json:"booking_id"`
    AmountCents uint32    `json:"amount_cents"`
    Method      string    `json:"method"`
    Reference   string    `json:"reference,omitempty"`
    Status      string    `json:"status"`
    CreatedAt   time.Time `json:"created_at"`
}
