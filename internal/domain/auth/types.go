package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// DefaultRole is the least-privileged role. Any failed or ambiguous role
// lookup resolves to it rather than escalating.
const DefaultRole = RoleStaff

// ParseRole returns the Role for s, or DefaultRole when s is not a known
// role value.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff:
		return Role(s)
	default:
		return DefaultRole
	}
}

// Identity represents the authenticated principal returned by an identity
// backend. Adapters map backend-specific records or claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (local user id or IdP sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute session expiry
}

// FullName joins the first and last name with a single space, matching how
// user records store full_name.
func (i Identity) FullName() string {
	switch {
	case i.FirstName == "":
		return i.LastName
	case i.LastName == "":
		return i.FirstName
	default:
		return i.FirstName + " " + i.LastName
	}
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`

	// LastSeenAt is refreshed on authenticated activity and drives idle
	// logout for users who opted in.
	LastSeenAt time.Time `json:"last_seen_at"`
}

// FullName joins the session's first and last name the same way Identity does.
func (s Session) FullName() string {
	return Identity{FirstName: s.FirstName, LastName: s.LastName}.FullName()
}

// IsAdmin returns true if the session role is admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
