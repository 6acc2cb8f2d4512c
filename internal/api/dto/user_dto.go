package dto

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/service"
)

// InviteUserRequest payload.
type InviteUserRequest struct {
	Email     string      `json:"email"`
	FirstName *string     `json:"fname"`
	LastName  *string     `json:"lname"`
	Role      domain.Role `json:"role"`
}

// Input maps the request onto the service input.
func (r InviteUserRequest) Input() service.InviteInput {
	return service.InviteInput{Email: r.Email, FirstName: r.FirstName, LastName: r.LastName, Role: r.Role}
}

// InviteUserResponse is returned with 201 whether or not the email went out.
type InviteUserResponse struct {
	Message        string       `json:"message"`
	InvitationLink string       `json:"invitation_link"`
	Warning        string       `json:"warning,omitempty"`
	User           UserResponse `json:"user"`
}

// NewInviteUserResponse maps an invitation result.
func NewInviteUserResponse(r *service.InviteResult) InviteUserResponse {
	message := "Invitation sent successfully"
	if r.Warning != "" {
		message = "User invited successfully, but email could not be sent"
	}
	return InviteUserResponse{
		Message:        message,
		InvitationLink: r.InvitationLink,
		Warning:        r.Warning,
		User:           NewUserResponse(&r.User),
	}
}

// UpdateUserRequest payload. Absent fields stay untouched; null or empty
// names clear the field.
type UpdateUserRequest struct {
	FirstName Optional[string]            `json:"fname"`
	LastName  Optional[string]            `json:"lname"`
	Role      Optional[domain.Role]       `json:"role"`
	Status    Optional[domain.UserStatus] `json:"status"`
}

// Patch converts the request into a sparse update.
func (r UpdateUserRequest) Patch() domain.UserPatch {
	return domain.UserPatch{
		FirstName: r.FirstName.Patch(),
		LastName:  r.LastName.Patch(),
		Role:      r.Role.Patch(),
		Status:    r.Status.Patch(),
	}
}

// UserResponse is the public view of an account. Password hashes and tokens
// are never rendered.
type UserResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FirstName *string           `json:"fname"`
	LastName  *string           `json:"lname"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	InvitedBy *string           `json:"invited_by,omitempty"`
	InvitedAt *time.Time        `json:"invited_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Status:    u.Status,
		InvitedBy: u.InvitedBy,
		InvitedAt: u.InvitedAt,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserListResponse is a page of accounts.
type UserListResponse struct {
	Users      []UserResponse     `json:"users"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewUserListResponse maps a user page.
func NewUserListResponse(l *service.UserList) UserListResponse {
	users := make([]UserResponse, 0, len(l.Users))
	for i := range l.Users {
		users = append(users, NewUserResponse(&l.Users[i]))
	}
	return UserListResponse{Users: users, Pagination: NewPaginationResponse(l.Pagination)}
}

// PaginationResponse describes the returned window.
type PaginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPaginationResponse maps pagination metadata.
func NewPaginationResponse(p service.Pagination) PaginationResponse {
	return PaginationResponse{Page: p.Page, Limit: p.Limit, Total: p.Total, Pages: p.Pages}
}
