package domain

import "time"

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusInvited  UserStatus = "invited"
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusInvited, UserStatusActive, UserStatusInactive:
		return true
	}
	return false
}

// Role enumerates account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an account of the tracker. ResetToken doubles as the invitation
// token while Status is invited.
type User struct {
	ID               string
	Email            string
	PasswordHash     *string
	FirstName        *string
	LastName         *string
	Role             Role
	Status           UserStatus
	ResetToken       *string
	ResetTokenExpiry *time.Time
	InvitedBy        *string
	InvitedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserPatch lists the administrator editable fields of a user.
type UserPatch struct {
	FirstName Patch[string]
	LastName  Patch[string]
	Role      Patch[Role]
	Status    Patch[UserStatus]
}

// Empty reports whether no field was supplied.
func (p UserPatch) Empty() bool {
	return !p.FirstName.Set && !p.LastName.Set && !p.Role.Set && !p.Status.Set
}

// userTransitions lists administrator status changes. Invited accounts have no
// password yet and only leave that state by accepting their invitation.
var userTransitions = map[UserStatus]map[UserStatus]struct{}{
	UserStatusInvited:  {},
	UserStatusActive:   {UserStatusInactive: {}},
	UserStatusInactive: {UserStatusActive: {}},
}

// CanTransition reports whether a user may move from one status to another.
// Staying in the same status is always allowed.
func CanTransition(from, to UserStatus) bool {
	if from == to {
		return true
	}
	_, ok := userTransitions[from][to]
	return ok
}
