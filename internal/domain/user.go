// Package domain contains the core entities shared across modules.
package domain

import "time"

// Role identifies what a user is allowed to do.
// The wire values are inherited from the original schema: "1" is a
// manager, "2" is a technician.
type Role string

const (
	RoleManager    Role = "1"
	RoleTechnician Role = "2"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleManager || r == RoleTechnician
}

// HasPermission reports whether the role satisfies the required minimum.
// Managers can do everything technicians can.
func (r Role) HasPermission(required Role) bool {
	if r == RoleManager {
		return true
	}
	return r == required
}

// User represents a registered account. Password holds the bcrypt hash
// of the credential and is never serialized to clients.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RefreshToken is a persisted refresh token issued at login. A user may
// hold several at once, one per login; they are invalidated only by
// signature expiry or explicit deletion.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
