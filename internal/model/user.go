package model

import "time"

// Account roles.  Every self-registered account is a STUDENT; STAFF is
// reserved for operator-provisioned accounts.
const (
	RoleStudent = "STUDENT"
	RoleStaff   = "STAFF"
)

// User represents a student account as stored in the `users` table.
// The student number is the external login identifier; internally all
// references use the numeric ID.  Passwords are stored as bcrypt
// hashes only.
//
// Fields:
//  ID            – primary key identifier.
//  StudentNumber – unique student number used for login.
//  FullName      – display name of the student.
//  Email         – contact email address.
//  PasswordHash  – bcrypt hash of the password.
//  Role          – account role (e.g. STUDENT, STAFF).
//  IsActive      – whether the account is active.
//  CreatedAt     – timestamp of registration.
//  LastLogin     – timestamp of the most recent login (nullable).
type User struct {
	ID            uint64     // users.id
	StudentNumber string     // users.student_number
	FullName      string     // users.full_name
	Email         string     // users.email
	PasswordHash  string     // users.password_hash
	Role          string     // users.role
	IsActive      bool       // users.is_active
	CreatedAt     time.Time  // users.created_at
	LastLogin     *time.Time // users.last_login (nullable)
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is persisted.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp.
//  RevokedAt – when the token was revoked (nil if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
