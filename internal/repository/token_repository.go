package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"
)

// TokenRepo keeps refresh token hashes.  Raw tokens never reach the
// database; a row is live while revoked_at is NULL and expires_at is ahead.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    if _, err := r.DB.ExecContext(ctx,
        "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
        userID, tokenHash, exp.UTC()); err != nil {
        return fmt.Errorf("store refresh: %w", err)
    }
    return nil
}

// ValidateRefresh returns the owner of a live token.  Unknown, revoked and
// expired tokens all yield ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
    var userID uint64
    err := r.DB.QueryRowContext(ctx,
        `SELECT user_id FROM refresh_tokens
          WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ?
          LIMIT 1`,
        tokenHash, time.Now().UTC()).Scan(&userID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrNotFound
    }
    if err != nil {
        return 0, fmt.Errorf("validate refresh: %w", err)
    }
    return userID, nil
}

func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    return r.revoke(ctx, "token_hash=?", tokenHash)
}

// RevokeAllForUser ends every session of a user; admins call it when they
// deactivate an account.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    return r.revoke(ctx, "user_id=?", userID)
}

func (r *TokenRepo) revoke(ctx context.Context, where string, arg any) error {
    _, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE "+where+" AND revoked_at IS NULL", arg)
    if err != nil {
        return fmt.Errorf("revoke refresh: %w", err)
    }
    return nil
}

// PurgeExpired deletes rows that expired or were revoked more than grace
// ago and reports how many went.
func (r *TokenRepo) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
    cutoff := time.Now().UTC().Add(-grace)
    res, err := r.DB.ExecContext(ctx,
        "DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at < ?", cutoff, cutoff)
    if err != nil {
        return 0, fmt.Errorf("purge refresh: %w", err)
    }
    return res.RowsAffected()
}
