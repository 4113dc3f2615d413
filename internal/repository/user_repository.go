package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/digital-services-site/internal/model"
    "github.com/iliyamo/digital-services-site/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,role,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
    var u model.User
    err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// Create inserts user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
        email, hash, role)
    if err != nil {
        if isDuplicate(err) {
            return 0, ErrEmailExists
        }
        return 0, fmt.Errorf("insert user: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    u, err := scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
    if errors.Is(err, sql.ErrNoRows) {
        return u, ErrNotFound
    }
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    u, err := scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
    if errors.Is(err, sql.ErrNoRows) {
        return u, ErrNotFound
    }
    return u, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
    rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
    if err != nil {
        return nil, fmt.Errorf("list users: %w", err)
    }
    defer rows.Close()
    var out []model.User
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

// UpdateRole changes a user's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string) error {
    return r.updateOne(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
}

// SetActive enables or disables sign-in for a user.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
    return r.updateOne(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
}

func (r *UserRepo) updateOne(ctx context.Context, q string, args ...any) error {
    res, err := r.DB.ExecContext(ctx, q, args...)
    if err != nil {
        return fmt.Errorf("update user: %w", err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // MySQL reports 0 when the value did not change; tell that apart
        // from a missing row.
        var one int
        err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", args[len(args)-1]).Scan(&one)
        if errors.Is(err, sql.ErrNoRows) {
            return ErrNotFound
        }
        return err
    }
    return nil
}

// EnsureAdmin creates an ADMIN account for email unless it exists.  An
// existing account is promoted to ADMIN.  It reports whether a row was
// created.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string, cost int) (bool, error) {
    u, err := r.GetByEmail(ctx, email)
    switch {
    case err == nil:
        if u.Role != model.RoleAdmin {
            return false, r.UpdateRole(ctx, u.ID, model.RoleAdmin)
        }
        return false, nil
    case errors.Is(err, ErrNotFound):
        _, err := r.Create(ctx, email, password, model.RoleAdmin, cost)
        return err == nil, err
    default:
        return false, err
    }
}
