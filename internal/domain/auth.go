package domain

import "time"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID     string
	Role   Role
	Status UserStatus
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}
