package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/digital-services-site/internal/model"
)

// MessageRepo stores contact form messages and service inquiries.
type MessageRepo struct {
    db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
    return &MessageRepo{db: db}
}

func (r *MessageRepo) CreateContact(ctx context.Context, m *model.ContactMessage) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO contact_messages (name, email, subject, message) VALUES (?, ?, ?, ?)",
        m.Name, m.Email, m.Subject, m.Message)
    if err != nil {
        return fmt.Errorf("insert contact message: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    return nil
}

// CreateInquiry yields ErrNotFound when the service does not exist.
func (r *MessageRepo) CreateInquiry(ctx context.Context, m *model.ServiceInquiry) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO service_inquiries (service_id, name, email, message) VALUES (?, ?, ?, ?)",
        m.ServiceID, m.Name, m.Email, m.Message)
    if err != nil {
        if isForeignKey(err) {
            return ErrNotFound
        }
        return fmt.Errorf("insert inquiry: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    return nil
}

func (r *MessageRepo) ListContacts(ctx context.Context, limit int) ([]model.ContactMessage, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT id, name, email, subject, message, created_at FROM contact_messages ORDER BY id DESC LIMIT ?", limit)
    if err != nil {
        return nil, fmt.Errorf("list contact messages: %w", err)
    }
    defer rows.Close()
    out := make([]model.ContactMessage, 0)
    for rows.Next() {
        var m model.ContactMessage
        if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

func (r *MessageRepo) ListInquiries(ctx context.Context, limit int) ([]model.ServiceInquiry, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT id, service_id, name, email, message, created_at FROM service_inquiries ORDER BY id DESC LIMIT ?", limit)
    if err != nil {
        return nil, fmt.Errorf("list inquiries: %w", err)
    }
    defer rows.Close()
    out := make([]model.ServiceInquiry, 0)
    for rows.Next() {
        var m model.ServiceInquiry
        if err := rows.Scan(&m.ID, &m.ServiceID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}
