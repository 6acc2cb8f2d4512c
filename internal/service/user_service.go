package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/config"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/notify"
	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// UserService implements account administration and invitations.
type UserService struct {
	users         repository.UserRepository
	notifier      notify.Notifier
	dispatcher    events.Dispatcher
	links         notify.Links
	logger        *zap.Logger
	now           func() time.Time
	invitationTTL time.Duration
	inviteTimeout time.Duration
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Notifier   notify.Notifier
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// InviteInput describes an invitation request.
type InviteInput struct {
	Email     string
	FirstName *string
	LastName  *string
	Role      domain.Role
}

// InviteResult is returned whether or not the email went out. Warning is set
// when delivery failed and the link must be shared by other means.
type InviteResult struct {
	User           domain.User
	InvitationLink string
	Warning        string
}

// UserList is a page of accounts.
type UserList struct {
	Users      []domain.User
	Pagination Pagination
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:         deps.UserRepo,
		notifier:      deps.Notifier,
		dispatcher:    deps.Dispatcher,
		links:         notify.Links{Frontend: cfg.App.Frontend()},
		logger:        logger,
		now:           now,
		invitationTTL: cfg.Auth.InvitationTTL(),
		inviteTimeout: cfg.Notification.InviteTimeout(),
	}
}

// Invite creates an invited account and tries to email the invitation link.
// Email failure never fails the invitation.
func (s *UserService) Invite(ctx context.Context, actor domain.Actor, in InviteInput) (*InviteResult, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("Email is required", map[string]any{"email": "required"})
	}
	if err := validation.Validate(email, is.Email); err != nil {
		return nil, apperrors.NewValidationError("Invalid email", map[string]any{"email": err.Error()})
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Invalid role", map[string]any{"role": string(role)})
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Status == domain.UserStatusInvited:
		return nil, apperrors.NewConflict("Invitation already sent", nil)
	case err == nil:
		return nil, apperrors.NewConflict("User already exists", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	expiry := now.Add(s.invitationTTL)
	user := &domain.User{
		Email:            email,
		FirstName:        blankToNil(in.FirstName),
		LastName:         blankToNil(in.LastName),
		Role:             role,
		Status:           domain.UserStatusInvited,
		ResetToken:       &token,
		ResetTokenExpiry: &expiry,
		InvitedBy:        &actor.ID,
		InvitedAt:        &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("User already exists", nil)
		}
		return nil, err
	}
	s.publish(ctx, events.New(events.EventUserInvited, user.ID, &actor.ID, events.UserInvitedPayload{Email: email, Role: role}))

	result := &InviteResult{User: *user, InvitationLink: s.links.Invitation(token)}
	if warning := s.sendInvitation(ctx, email, token); warning != "" {
		result.Warning = warning
	}
	return result, nil
}

func (s *UserService) sendInvitation(ctx context.Context, email, token string) string {
	if s.notifier == nil {
		return notify.ErrNotConfigured.Error()
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.inviteTimeout)
	defer cancel()

	err := s.notifier.SendInvitation(sendCtx, email, token)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("invitation email timed out", zap.String("email", email))
		return "Email timeout"
	default:
		s.logger.Warn("invitation email failed", zap.String("email", email), zap.Error(err))
		return err.Error()
	}
}

// List returns accounts newest first, optionally filtered by email substring.
func (s *UserService) List(ctx context.Context, actor domain.Actor, search string, page PageRequest) (*UserList, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := page.validate(); err != nil {
		return nil, err
	}
	window := page.window()
	users, total, err := s.users.List(ctx, repository.UserFilter{
		Search: search,
		Limit:  window.Limit,
		Offset: window.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &UserList{Users: users, Pagination: newPagination(page, total)}, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Update applies an administrator edit. Administrators may not change their
// own role or status, and status changes must follow the account lifecycle.
func (s *UserService) Update(ctx context.Context, actor domain.Actor, id string, patch domain.UserPatch) (*domain.User, error) {
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	target, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Role.Set || patch.Status.Set {
		if err := auth.ForbidSelf(actor, target.ID, "Cannot modify your own role or status"); err != nil {
			return nil, err
		}
	}

	if patch.Role.Set && (patch.Role.Value == nil || !patch.Role.Value.Valid()) {
		return nil, apperrors.NewValidationError("Invalid role", nil)
	}
	if patch.Status.Set {
		if patch.Status.Value == nil || !patch.Status.Value.Valid() {
			return nil, apperrors.NewValidationError("Invalid status", nil)
		}
		if !domain.CanTransition(target.Status, *patch.Status.Value) {
			return nil, apperrors.NewValidationError("Invalid status transition", map[string]any{
				"from": string(target.Status),
				"to":   string(*patch.Status.Value),
			})
		}
	}
	if patch.FirstName.Set {
		patch.FirstName.Value = blankToNil(patch.FirstName.Value)
	}
	if patch.LastName.Set {
		patch.LastName.Value = blankToNil(patch.LastName.Value)
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("No fields to update", nil)
	}

	if err := s.users.Update(ctx, target.ID, patch); err != nil {
		return nil, notFound(err, "User")
	}
	return s.find(ctx, target.ID)
}

// Delete removes an account. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if err := auth.ForbidSelf(actor, id, "Cannot delete your own account"); err != nil {
		return err
	}
	if !validID(id) {
		return apperrors.NewNotFound("User", nil)
	}
	return notFound(s.users.Delete(ctx, id), "User")
}

func (s *UserService) find(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("User", nil)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// blankToNil trims v and maps empty strings to nil.
func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
