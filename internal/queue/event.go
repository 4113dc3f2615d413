// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into notification log lines.
package queue

// Queue names.  Each is a durable queue bound to the default exchange.
const (
    BookingCreatedQueue   = "booking.created"
    ContactReceivedQueue  = "contact.received"
    InquiryReceivedQueue  = "inquiry.received"
    PaymentSubmittedQueue = "payment.submitted"
)

// Queues lists every queue the consumer drains.
var Queues = []string{BookingCreatedQueue, ContactReceivedQueue, InquiryReceivedQueue, PaymentSubmittedQueue}

// BookingCreatedEvent is published after a booking form is accepted.  It
// carries enough for staff notification without querying the database.
type BookingCreatedEvent struct {
    BookingID    uint64 `json:"booking_id"`
    TicketNumber string `json:"ticket_number"`
    ServiceID    uint64 `json:"service_id"`
    ServiceTitle string `json:"service_title"`
    CustomerName string `json:"customer_name"`
    Email        string `json:"email"`
    ScheduledFor string `json:"scheduled_for"`
    CreatedAt    string `json:"created_at"`
}

// ContactReceivedEvent is published for every stored contact message.
type ContactReceivedEvent struct {
    MessageID  uint64 `json:"message_id"`
    Name       string `json:"name"`
    Email      string `json:"email"`
    Subject    string `json:"subject"`
    ReceivedAt string `json:"received_at"`
}

// InquiryReceivedEvent is published for every stored service inquiry.
type InquiryReceivedEvent struct {
    InquiryID  uint64 `json:"inquiry_id"`
    ServiceID  uint64 `json:"service_id"`
    Name       string `json:"name"`
    Email      string `json:"email"`
    ReceivedAt string `json:"received_at"`
}

// PaymentSubmittedEvent is published when a payment notice is recorded.
type PaymentSubmittedEvent struct {
    PaymentID    uint64 `json:"payment_id"`
    BookingID    uint64 `json:"booking_id"`
    TicketNumber string `json:"ticket_number"`
    AmountCents  uint32 `json:"amount_cents"`
    Method       string `json:"method"`
    SubmittedAt  string `json:"submitted_at"`
}
