package model

import "time"

// Staff roles.  Hosts run the floor (seat, clear, edit bookings); managers
// can additionally create tables.
const (
    RoleHost    = "HOST"
    RoleManager = "MANAGER"
)

// Staff represents an operator account as stored in the `staff`
// table.  Only the bcrypt hash of the password is kept.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique, lower-cased login.
//  PasswordHash – bcrypt hashed password.
//  Role         – HOST or MANAGER.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Staff struct {
    ID           uint64    // staff.id
    Email        string    // staff.email
    PasswordHash string    // staff.password_hash
    Role         string    // staff.role
    IsActive     bool      // staff.is_active
    CreatedAt    time.Time // staff.created_at
    UpdatedAt    time.Time // staff.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is returned to the client once; only its SHA-256 hash is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    StaffID   uint64     // refresh_tokens.staff_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
