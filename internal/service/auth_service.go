package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/config"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/notify"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/internal/worker"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// BackgroundRunner starts a detached task bounded by timeout.
type BackgroundRunner func(name string, timeout time.Duration, task func(context.Context) error)

// Session is an issued session token together with the authenticated user.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService coordinates login, password reset and invitation acceptance.
type AuthService struct {
	users       repository.UserRepository
	tokenMgr    *auth.TokenManager
	notifier    notify.Notifier
	dispatcher  events.Dispatcher
	background  BackgroundRunner
	logger      *zap.Logger
	now         func() time.Time
	bcryptCost  int
	minPassword int
	resetTTL    time.Duration
	sendTimeout time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Notifier     notify.Notifier
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	// Background defaults to worker.Go.
	Background BackgroundRunner
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	background := deps.Background
	if background == nil {
		background = func(name string, timeout time.Duration, task func(context.Context) error) {
			worker.Go(logger, name, timeout, task)
		}
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	tokenMgr := deps.TokenManager
	if tokenMgr == nil {
		tokenMgr = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokenMgr:    tokenMgr,
		notifier:    deps.Notifier,
		dispatcher:  deps.Dispatcher,
		background:  background,
		logger:      logger,
		now:         now,
		bcryptCost:  cfg.Auth.BcryptCost,
		minPassword: minPasswordLength(cfg.Auth),
		resetTTL:    cfg.Auth.ResetTTL(),
		sendTimeout: cfg.Notification.SendTimeout(),
	}
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}

	switch user.Status {
	case domain.UserStatusInvited:
		return nil, apperrors.NewForbiddenReason("Please accept your invitation first", string(domain.UserStatusInvited))
	case domain.UserStatusInactive:
		return nil, apperrors.NewForbiddenReason("Account is deactivated", string(domain.UserStatusInactive))
	}

	if user.PasswordHash == nil || !auth.VerifyPassword(password, *user.PasswordHash) {
		return nil, apperrors.NewInvalidCredentials()
	}
	return s.issueSession(user)
}

// ForgotPassword stores a fresh reset token and emails it in the background.
// The caller never waits for, nor learns about, the delivery outcome.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("Email is required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err, "User")
	}
	if user.Status == domain.UserStatusInvited {
		return apperrors.NewForbiddenReason("Please accept your invitation first", string(domain.UserStatusInvited))
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return notFound(err, "User")
	}

	if s.notifier != nil {
		recipient := user.Email
		s.background("password_reset_email", s.sendTimeout, func(ctx context.Context) error {
			return s.notifier.SendPasswordReset(ctx, recipient, token)
		})
	}
	return nil
}

// ResetPassword redeems a reset token. The token is consumed in the same
// write that stores the new hash, so it can be used at most once.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" || password == "" {
		return apperrors.NewValidationError("Token and password are required", nil)
	}
	if err := s.checkPassword(password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	userID, err := s.users.ConsumeResetToken(ctx, token, hash, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewTokenError(apperrors.ErrInvalidToken)
		}
		return err
	}

	s.publish(ctx, events.New(events.EventPasswordReset, userID, &userID, nil))
	return nil
}

// AcceptInvitation sets the first password of an invited account, activates
// it and signs the user in.
func (s *AuthService) AcceptInvitation(ctx context.Context, token, password string) (*Session, error) {
	if strings.TrimSpace(token) == "" || password == "" {
		return nil, apperrors.NewValidationError("Token and password are required", nil)
	}
	if err := s.checkPassword(password); err != nil {
		return nil, err
	}

	user, err := s.users.GetInvitedByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewTokenError(apperrors.ErrInvalidToken)
		}
		return nil, err
	}
	if user.ResetTokenExpiry == nil || !user.ResetTokenExpiry.After(s.now()) {
		return nil, apperrors.NewTokenError(apperrors.ErrTokenExpired)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.ConsumeInvitation(ctx, user.ID, token, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewTokenError(apperrors.ErrInvalidToken)
		}
		return nil, err
	}

	user.PasswordHash = &hash
	user.Status = domain.UserStatusActive
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	s.publish(ctx, events.New(events.EventUserActivated, user.ID, &user.ID, nil))
	return s.issueSession(user)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: *user}, nil
}

func (s *AuthService) checkPassword(password string) error {
	return checkPasswordLength(password, s.minPassword)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func checkPasswordLength(password string, minLength int) error {
	if utf8.RuneCountInString(password) < minLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("Password must be at least %d characters", minLength),
			map[string]any{"password": "too short"},
		)
	}
	return nil
}

func minPasswordLength(cfg config.AuthConfig) int {
	if cfg.MinPasswordLength <= 0 {
		return 6
	}
	return cfg.MinPasswordLength
}
