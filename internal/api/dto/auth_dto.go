package dto

import (
	"time"

	"github.com/spec-kit/issue-tracker/internal/service"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest payload for initiating a reset.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload for redeeming a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AcceptInvitationRequest payload for redeeming an invitation.
type AcceptInvitationRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthResponse standard response for endpoints that sign the user in.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewAuthResponse maps a session.
func NewAuthResponse(s *service.Session) AuthResponse {
	return AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, User: NewUserResponse(&s.User)}
}
