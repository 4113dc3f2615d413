// This file groups the editorial tables managed from the admin console:
// blog posts, career openings and site settings.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/digital-services-site/internal/model"
)

// ContentRepo encapsulates queries on blog_posts, careers and site_settings.
type ContentRepo struct {
    db *sql.DB
}

func NewContentRepo(db *sql.DB) *ContentRepo {
    return &ContentRepo{db: db}
}

// ---- Blog ----

const blogColumns = "id, slug, title, excerpt, body, is_published, published_at, created_at, updated_at"

func scanPost(row interface{ Scan(...any) error }) (*model.BlogPost, error) {
    var (
        p  model.BlogPost
        pa sql.NullTime
    )
    if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &p.Body, &p.IsPublished, &pa, &p.CreatedAt, &p.UpdatedAt); err != nil {
        return nil, err
    }
    if pa.Valid {
        t := pa.Time
        p.PublishedAt = &t
    }
    return &p, nil
}

// ListPosts returns posts newest first.  publishedOnly hides drafts.
func (r *ContentRepo) ListPosts(ctx context.Context, publishedOnly bool, limit int) ([]model.BlogPost, error) {
    q := "SELECT " + blogColumns + " FROM blog_posts"
    if publishedOnly {
        q += " WHERE is_published = 1"
    }
    q += " ORDER BY COALESCE(published_at, created_at) DESC, id DESC LIMIT ?"
    rows, err := r.db.QueryContext(ctx, q, limit)
    if err != nil {
        return nil, fmt.Errorf("list posts: %w", err)
    }
    defer rows.Close()
    out := make([]model.BlogPost, 0)
    for rows.Next() {
        p, err := scanPost(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

func (r *ContentRepo) GetPostBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
    p, err := scanPost(r.db.QueryRowContext(ctx, "SELECT "+blogColumns+" FROM blog_posts WHERE slug = ?", slug))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return p, err
}

// SavePost inserts p when its ID is zero and updates it otherwise.  The
// publish date is stamped the first time a post is published.
func (r *ContentRepo) SavePost(ctx context.Context, p *model.BlogPost) error {
    if p.IsPublished && p.PublishedAt == nil {
        now := time.Now().UTC()
        p.PublishedAt = &now
    }
    if p.ID == 0 {
        res, err := r.db.ExecContext(ctx,
            "INSERT INTO blog_posts (slug, title, excerpt, body, is_published, published_at) VALUES (?, ?, ?, ?, ?, ?)",
            p.Slug, p.Title, p.Excerpt, p.Body, p.IsPublished, p.PublishedAt)
        if err != nil {
            if isDuplicate(err) {
                return ErrConflict
            }
            return fmt.Errorf("insert post: %w", err)
        }
        id, err := res.LastInsertId()
        if err != nil {
            return err
        }
        p.ID = uint64(id)
        return nil
    }
    res, err := r.db.ExecContext(ctx,
        "UPDATE blog_posts SET slug = ?, title = ?, excerpt = ?, body = ?, is_published = ?, published_at = ? WHERE id = ?",
        p.Slug, p.Title, p.Excerpt, p.Body, p.IsPublished, p.PublishedAt, p.ID)
    if err != nil {
        if isDuplicate(err) {
            return ErrConflict
        }
        return fmt.Errorf("update post: %w", err)
    }
    return r.existsAfterUpdate(ctx, res, "blog_posts", p.ID)
}

func (r *ContentRepo) DeletePost(ctx context.Context, id uint64) error {
    return r.deleteByID(ctx, "blog_posts", id)
}

// ---- Careers ----

const careerColumns = "id, title, department, location, employment_type, description, is_open, created_at, updated_at"

func (r *ContentRepo) ListCareers(ctx context.Context, openOnly bool) ([]model.Career, error) {
    q := "SELECT " + careerColumns + " FROM careers"
    if openOnly {
        q += " WHERE is_open = 1"
    }
    q += " ORDER BY department, title"
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, fmt.Errorf("list careers: %w", err)
    }
    defer rows.Close()
    out := make([]model.Career, 0)
    for rows.Next() {
        var c model.Career
        if err := rows.Scan(&c.ID, &c.Title, &c.Department, &c.Location, &c.EmploymentType, &c.Description, &c.IsOpen, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// SaveCareer inserts c when its ID is zero and updates it otherwise.
func (r *ContentRepo) SaveCareer(ctx context.Context, c *model.Career) error {
    if c.ID == 0 {
        res, err := r.db.ExecContext(ctx,
            "INSERT INTO careers (title, department, location, employment_type, description, is_open) VALUES (?, ?, ?, ?, ?, ?)",
            c.Title, c.Department, c.Location, c.EmploymentType, c.Description, c.IsOpen)
        if err != nil {
            return fmt.Errorf("insert career: %w", err)
        }
        id, err := res.LastInsertId()
        if err != nil {
            return err
        }
        c.ID = uint64(id)
        return nil
    }
    res, err := r.db.ExecContext(ctx,
        "UPDATE careers SET title = ?, department = ?, location = ?, employment_type = ?, description = ?, is_open = ? WHERE id = ?",
        c.Title, c.Department, c.Location, c.EmploymentType, c.Description, c.IsOpen, c.ID)
    if err != nil {
        return fmt.Errorf("update career: %w", err)
    }
    return r.existsAfterUpdate(ctx, res, "careers", c.ID)
}

func (r *ContentRepo) DeleteCareer(ctx context.Context, id uint64) error {
    return r.deleteByID(ctx, "careers", id)
}

// ---- Settings ----

// Settings returns every site setting as a key/value map.
func (r *ContentRepo) Settings(ctx context.Context) (map[string]string, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT setting_key, setting_value FROM site_settings")
    if err != nil {
        return nil, fmt.Errorf("list settings: %w", err)
    }
    defer rows.Close()
    out := map[string]string{}
    for rows.Next() {
        var k, v string
        if err := rows.Scan(&k, &v); err != nil {
            return nil, err
        }
        out[k] = v
    }
    return out, rows.Err()
}

// UpsertSettings writes all pairs in one transaction.
func (r *ContentRepo) UpsertSettings(ctx context.Context, kv map[string]string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()
    for k, v := range kv {
        if _, err := tx.ExecContext(ctx,
            "INSERT INTO site_settings (setting_key, setting_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)",
            k, v); err != nil {
            return fmt.Errorf("upsert setting %s: %w", k, err)
        }
    }
    return tx.Commit()
}

func (r *ContentRepo) DeleteSetting(ctx context.Context, key string) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM site_settings WHERE setting_key = ?", key)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// table names below come from constants in this file, never from input

func (r *ContentRepo) deleteByID(ctx context.Context, table string, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
    if err != nil {
        return fmt.Errorf("delete from %s: %w", table, err)
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

func (r *ContentRepo) existsAfterUpdate(ctx context.Context, res sql.Result, table string, id uint64) error {
    if n, err := res.RowsAffected(); err != nil || n > 0 {
        return err
    }
    var one int
    err := r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrNotFound
    }
    return err
}
