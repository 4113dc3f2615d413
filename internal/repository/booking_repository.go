package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/google/uuid"

    "github.com/iliyamo/digital-services-site/internal/model"
)

// BookingRepo persists bookings and payment notices.
type BookingRepo struct {
    db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
    return &BookingRepo{db: db}
}

// DB exposes the underlying connection for callers that need transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = "id, ticket_number, service_id, customer_name, email, phone, scheduled_for, notes, status, created_at, updated_at"

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var b model.Booking
    if err := row.Scan(&b.ID, &b.TicketNumber, &b.ServiceID, &b.CustomerName, &b.Email, &b.Phone,
        &b.ScheduledFor, &b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
        return nil, err
    }
    return &b, nil
}

// NewTicketNumber derives a short public reference from a random UUID.
func NewTicketNumber() string {
    id := strings.ReplaceAll(uuid.NewString(), "-", "")
    return "TKT-" + strings.ToUpper(id[:8])
}

// Create inserts a PENDING booking, assigning its ticket number.  A ticket
// collision is retried a few times before giving up.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = "INSERT INTO bookings (ticket_number, service_id, customer_name, email, phone, scheduled_for, notes, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
    b.Status = model.BookingPending
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        b.TicketNumber = NewTicketNumber()
        res, err := r.db.ExecContext(ctx, q, b.TicketNumber, b.ServiceID, b.CustomerName, b.Email, b.Phone, b.ScheduledFor.UTC(), b.Notes, b.Status)
        if err != nil {
            if isDuplicate(err) {
                lastErr = ErrConflict
                continue
            }
            if isForeignKey(err) {
                return ErrNotFound
            }
            return fmt.Errorf("insert booking: %w", err)
        }
        id, err := res.LastInsertId()
        if err != nil {
            return err
        }
        b.ID = uint64(id)
        return nil
    }
    return lastErr
}

func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    b, err := scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return b, err
}

func (r *BookingRepo) GetByTicket(ctx context.Context, ticket string) (*model.Booking, error) {
    ticket = strings.ToUpper(strings.TrimSpace(ticket))
    b, err := scanBooking(r.db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE ticket_number = ?", ticket))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return b, err
}

// List returns bookings newest first, optionally filtered by status.
func (r *BookingRepo) List(ctx context.Context, status string, limit int) ([]model.Booking, error) {
    q := "SELECT " + bookingColumns + " FROM bookings"
    var args []any
    if status != "" {
        q += " WHERE status = ?"
        args = append(args, status)
    }
    q += " ORDER BY created_at DESC, id DESC LIMIT ?"
    args = append(args, limit)

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, fmt.Errorf("list bookings: %w", err)
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}

// UpdateStatus moves a booking to status inside a transaction, locking the
// row so two staff members cannot race on the same booking.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Booking, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var current string
    err = tx.QueryRowContext(ctx, "SELECT status FROM bookings WHERE id = ? FOR UPDATE", id).Scan(&current)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if !model.CanTransition(current, status) {
        return nil, ErrInvalidTransition
    }
    if _, err := tx.ExecContext(ctx, "UPDATE bookings SET status = ? WHERE id = ?", status, id); err != nil {
        return nil, fmt.Errorf("update booking status: %w", err)
    }
    b, err := scanBooking(tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return b, nil
}

func (r *BookingRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
    if err != nil {
        return fmt.Errorf("delete booking: %w", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// CountByStatus returns the number of bookings per status.
func (r *BookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM bookings GROUP BY status")
    if err != nil {
        return nil, fmt.Errorf("count bookings: %w", err)
    }
    defer rows.Close()
    out := map[string]int64{
        model.BookingPending:   0,
        model.BookingConfirmed: 0,
        model.BookingCancelled: 0,
    }
    for rows.Next() {
        var (
            status string
            n      int64
        )
        if err := rows.Scan(&status, &n); err != nil {
            return nil, err
        }
        out[status] = n
    }
    return out, rows.Err()
}

// CreatePayment records a payment notice against a booking.
func (r *BookingRepo) CreatePayment(ctx context.Context, p *model.Payment) error {
    const q = "INSERT INTO payments (booking_id, amount_cents, method, reference, status) VALUES (?, ?, ?, ?, ?)"
    if p.Status == "" {
        p.Status = model.PaymentPending
    }
    res, err := r.db.ExecContext(ctx, q, p.BookingID, p.AmountCents, p.Method, p.Reference, p.Status)
    if err != nil {
        if isForeignKey(err) {
            return ErrNotFound
        }
        return fmt.Errorf("insert payment: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}
