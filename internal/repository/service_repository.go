// This file holds the catalog repository.  A Service is one offer of the
// company (software, social media, digital or investment).  Public handlers
// only ever read active services; the admin console sees all of them.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/iliyamo/digital-services-site/internal/model"
)

// ServiceRepo encapsulates all queries on the `services` table.
type ServiceRepo struct {
    db *sql.DB
}

func NewServiceRepo(db *sql.DB) *ServiceRepo {
    return &ServiceRepo{db: db}
}

const serviceColumns = "id, slug, category, title, summary, description, price_cents, roi_percent, is_active, created_at, updated_at"

func scanService(row interface{ Scan(...any) error }) (*model.Service, error) {
    var (
        s   model.Service
        roi sql.NullFloat64
    )
    if err := row.Scan(&s.ID, &s.Slug, &s.Category, &s.Title, &s.Summary, &s.Description,
        &s.PriceCents, &roi, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
        return nil, err
    }
    if roi.Valid {
        v := roi.Float64
        s.ROIPercent = &v
    }
    return &s, nil
}

// List returns services ordered by category then title.  An empty category
// matches all; activeOnly hides disabled entries.
func (r *ServiceRepo) List(ctx context.Context, category string, activeOnly bool) ([]model.Service, error) {
    q := "SELECT " + serviceColumns + " FROM services WHERE 1=1"
    var args []any
    if category != "" {
        q += " AND category = ?"
        args = append(args, category)
    }
    if activeOnly {
        q += " AND is_active = 1"
    }
    q += " ORDER BY category, title"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, fmt.Errorf("list services: %w", err)
    }
    defer rows.Close()
    out := make([]model.Service, 0)
    for rows.Next() {
        s, err := scanService(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    return out, rows.Err()
}

// GetByID returns ErrNotFound when no row matches.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
    s, err := scanService(r.db.QueryRowContext(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return s, err
}

func (r *ServiceRepo) GetBySlug(ctx context.Context, slug string) (*model.Service, error) {
    s, err := scanService(r.db.QueryRowContext(ctx, "SELECT "+serviceColumns+" FROM services WHERE slug = ?", slug))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return s, err
}

// Create inserts s and fills in its ID.  A duplicate slug yields ErrConflict.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
    const q = "INSERT INTO services (slug, category, title, summary, description, price_cents, roi_percent, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
    res, err := r.db.ExecContext(ctx, q, s.Slug, s.Category, s.Title, s.Summary, s.Description, s.PriceCents, s.ROIPercent, s.IsActive)
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return fmt.Errorf("insert service: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// Update overwrites every editable column of s.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
    const q = "UPDATE services SET slug = ?, category = ?, title = ?, summary = ?, description = ?, price_cents = ?, roi_percent = ?, is_active = ? WHERE id = ?"
    res, err := r.db.ExecContext(ctx, q, s.Slug, s.Category, s.Title, s.Summary, s.Description, s.PriceCents, s.ROIPercent, s.IsActive, s.ID)
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return fmt.Errorf("update service: %w", err)
    }
    return r.mustExist(ctx, res, s.ID)
}

// Delete removes a service.  Services referenced by bookings cannot be
// removed and yield ErrConflict; deactivate them instead.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
    if err != nil {
        if isForeignKey(err) {
            return ErrConflict
        }
        return fmt.Errorf("delete service: %w", err)
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

// mustExist turns a zero-row UPDATE into ErrNotFound, unless the row exists
// and simply did not change.
func (r *ServiceRepo) mustExist(ctx context.Context, res sql.Result, id uint64) error {
    if n, err := res.RowsAffected(); err != nil || n > 0 {
        return err
    }
    if _, err := r.GetByID(ctx, id); err != nil {
        return err
    }
    return nil
}
