package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/config"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/repository/memory"
	"github.com/spec-kit/issue-tracker/internal/service"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendInvitation(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

func (m *mockNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

// inline runs background tasks synchronously so tests can assert on them.
func inline(_ string, timeout time.Duration, task func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = task(ctx)
}

type fixture struct {
	cfg      config.Config
	clock    *clock
	store    *memory.Store
	notifier *mockNotifier
	events   *[]events.Event
	auth     *service.AuthService
	users    *service.UserService
	issues   *service.IssueService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", BcryptCost: 4, MinPasswordLength: 6},
		App:  config.AppConfig{FrontendURL: "https://tracker.example.com"},
	}
	c := &clock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(c.now))
	notifier := &mockNotifier{}
	dispatcher := events.NewInMemoryDispatcher(nil)

	published := []events.Event{}
	for _, eventType := range []events.EventType{
		events.EventIssueCreated, events.EventIssueUpdated, events.EventIssueStatusChanged,
		events.EventIssueDeleted, events.EventUserInvited, events.EventUserActivated, events.EventPasswordReset,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		})
	}

	return &fixture{
		cfg:      cfg,
		clock:    c,
		store:    store,
		notifier: notifier,
		events:   &published,
		auth: service.NewAuthService(cfg, service.AuthDependencies{
			UserRepo:   store.Users(),
			Notifier:   notifier,
			Dispatcher: dispatcher,
			Background: inline,
			Clock:      c.now,
		}),
		users: service.NewUserService(cfg, service.UserDependencies{
			UserRepo:   store.Users(),
			Notifier:   notifier,
			Dispatcher: dispatcher,
			Clock:      c.now,
		}),
		issues: service.NewIssueService(service.IssueDependencies{
			IssueRepo:  store.Issues(),
			UserRepo:   store.Users(),
			Dispatcher: dispatcher,
		}),
	}
}

// seedUser stores an account with the given password and returns it as an actor.
func (f *fixture) seedUser(t *testing.T, email, password string, role domain.Role, status domain.UserStatus) domain.Actor {
	t.Helper()
	var hash *string
	if password != "" {
		h, err := auth.HashPassword(password, 4)
		require.NoError(t, err)
		hash = &h
	}
	u := &domain.User{Email: email, PasswordHash: hash, Role: role, Status: status}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return domain.Actor{ID: u.ID, Role: role, Status: status}
}

func (f *fixture) eventTypes() []events.EventType {
	types := []events.EventType{}
	for _, e := range *f.events {
		types = append(types, e.Type)
	}
	return types
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, code), "want %s, got %v", code, err)
	return apperrors.ToDomainError(err)
}

func ptr[T any](v T) *T { return &v }
