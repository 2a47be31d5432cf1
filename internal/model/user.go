package model

import (
	"strings"
	"time"
)

// Role names the closed set of account roles known to the service.  Roles
// are stored as plain strings in the `users` table but handled as this
// named type everywhere else so that role checks stay exhaustive.
type Role string

const (
	RoleCustomer Role = "CUSTOMER" // default role for self-registration
	RoleAdmin    Role = "ADMIN"    // elevated role, assigned out of band
)

// ParseRole normalizes a raw role string and reports whether it names a
// known role.  Unknown or empty input returns ok=false rather than a
// fallback so callers decide the default themselves.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleCustomer:
		return RoleCustomer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents an account record as stored in the `users` table.  Each
// field corresponds to a column.  The json tags are omitted because these
// structs are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique email address, stored lowercased and trimmed.
//  PasswordHash – bcrypt digest of the password.  Empty unless the record
//                 was loaded through the with-hash accessor.
//  Role         – account role (CUSTOMER or ADMIN).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Email        string    // users.email
	PasswordHash string    // users.password_hash (loaded on demand)
	Role         Role      // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// NormalizeEmail lowercases and trims an email address.  Every lookup and
// insert goes through this so the unique index always sees one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
