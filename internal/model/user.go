package model

import "time"

// Roles understood by the admin console.  ADMIN has full access, EDITOR
// manages content only, CUSTOMER is a regular site account.
const (
    RoleAdmin    = "ADMIN"
    RoleEditor   = "EDITOR"
    RoleCustomer = "CUSTOMER"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
    return r == RoleAdmin || r == RoleEditor || r == RoleCustomer
}

// User represents a row of the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN, EDITOR or CUSTOMER.
//  IsActive     – whether the account may sign in.
type User struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored; only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
