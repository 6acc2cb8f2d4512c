package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/service"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

func TestInviteValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seedUser(t, "admin@example.com", "adminpw", domain.RoleAdmin, domain.UserStatusActive)
	member := f.seedUser(t, "member@example.com", "memberpw", domain.RoleUser, domain.UserStatusActive)
	f.notifier.On("SendInvitation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cases := []struct {
		name  string
		actor domain.Actor
		in    service.InviteInput
		code  string
		msg   string
	}{
		{"non admin", member, service.InviteInput{Email: "x@example.com"}, apperrors.CodeForbidden, "Admin role required"},
		{"no session", domain.Actor{}, service.InviteInput{Email: "x@example.com"}, apperrors.CodeUnauthorized, ""},
		{"missing email", admin, service.InviteInput{}, apperrors.CodeValidation, "Email is required"},
		{"bad email", admin, service.InviteInput{Email: "not-an-email"}, apperrors.CodeValidation, "Invalid email"},
		{"email without domain", admin, service.InviteInput{Email: "ada@"}, apperrors.CodeValidation, "Invalid email"},
		{"bad role", admin, service.InviteInput{Email: "x@example.com", Role: "owner"}, apperrors.CodeValidation, "Invalid role"},
		{"existing account", admin, service.InviteInput{Email: "member@example.com"}, apperrors.CodeConflict, "User already exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.users.Invite(ctx, tc.actor, tc.in)
			derr := requireCode(t, err, tc.code)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, derr.Message)
			}
		})
	}

	t.Run("pending invitation", func(t *testing.T) {
		result, err := f.users.Invite(ctx, admin, service.InviteInput{Email: "pending@example.com"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, result.User.Role)
		assert.Equal(t, admin.ID, *result.User.InvitedBy)

		_, err = f.users.Invite(ctx, admin, service.InviteInput{Email: "pending@example.com"})
		derr := requireCode(t, err, apperrors.CodeConflict)
		assert.Equal(t, "Invitation already sent", derr.Message)
	})
}

func TestInviteDeliveryWarnings(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "admin@example.com", "adminpw", domain.RoleAdmin, domain.UserStatusActive)
		f.notifier.On("SendInvitation", mock.Anything, "a@example.com", mock.Anything).Return(errors.New("relay refused"))

		result, err := f.users.Invite(ctx, admin, service.InviteInput{Email: "a@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "relay refused", result.Warning)
		assert.NotEmpty(t, result.InvitationLink)
	})

	t.Run("timeout", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "admin@example.com", "adminpw", domain.RoleAdmin, domain.UserStatusActive)
		f.notifier.On("SendInvitation", mock.Anything, "b@example.com", mock.Anything).Return(context.DeadlineExceeded)

		result, err := f.users.Invite(ctx, admin, service.InviteInput{Email: "b@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "Email timeout", result.Warning)
	})

	t.Run("no provider", func(t *testing.T) {
		f := newFixture(t)
		admin := f.seedUser(t, "admin@example.com", "adminpw", domain.RoleAdmin, domain.UserStatusActive)
		users := service.NewUserService(f.cfg, service.UserDependencies{UserRepo: f.store.Users()})

		result, err := users.Invite(ctx, admin, service.InviteInput{Email: "c@example.com", Role: domain.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, "SMTP not configured", result.Warning)
		assert.Equal(t, domain.RoleAdmin, result.User.Role)
	})
}

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seedUser(t, "admin@example.com", "adminpw", domain.RoleAdmin, domain.UserStatusActive)
	member := f.seedUser(t, "member@example.com", "memberpw", domain.RoleUser, domain.UserStatusActive)
	invited := f.seedUser(t, "invited@example.com", "", domain.RoleUser, domain.UserStatusInvited)

	t.Run("admin cannot change own role", func(t *testing.T) {
		_, err := f.users.Update(ctx, admin, admin.ID, domain.UserPatch{Role: domain.SetTo(domain.RoleUser)})
		requireCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("admin may rename self", func(t *testing.T) {
		u, err := f.users.Update(ctx, admin, admin.ID, domain.UserPatch{FirstName: domain.SetTo("Ada")})
		require.NoError(t, err)
		assert.Equal(t, "Ada", *u.FirstName)
	})

	t.Run("blank name clears", func(t *testing.T) {
		u, err := f.users.Update(ctx, admin, admin.ID, domain.UserPatch{FirstName: domain.SetTo("  ")})
		require.NoError(t, err)
		assert.Nil(t, u.FirstName)
	})

	t.Run("deactivate and reactivate", func(t *testing.T) {
		u, err := f.users.Update(ctx, admin, member.ID, domain.UserPatch{Status: domain.SetTo(domain.UserStatusInactive)})
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusInactive, u.Status)

		u, err = f.users.Update(ctx, admin, member.ID, domain.UserPatch{Status: domain.SetTo(domain.UserStatusActive)})
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusActive, u.Status)
	})

	t.Run("invited users only activate by accepting", func(t *testing.T) {
		for _, status := range []domain.UserStatus{domain.UserStatusActive, domain.UserStatusInactive} {
			_, err := f.users.Update(ctx, admin, invited.ID, domain.UserPatch{Status: domain.SetTo(status)})
			derr := requireCode(t, err, apperrors.CodeValidation)
			assert.Equal(t, "Invalid status transition", derr.Message)
		}

		stored, err := f.users.Get(ctx, admin, invited.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusInvited, stored.Status)
		assert.Nil(t, stored.PasswordHash)
	})

	t.Run("empty patch", func(t *testing.T) {
		_, err := f.users.Update(ctx, admin, member.ID, domain.UserPatch{})
		requireCode(t, err, apperrors.CodeValidation)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := f.users.Update(ctx, admin, "00000000-0000-0000-0000-000000000000", domain.UserPatch{FirstName: domain.SetTo("x")})
		requireCode(t, err, apperrors.CodeNotFound)
		_, err = f.users.Get(ctx, member, "not-a-uuid")
		requireCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("members cannot administer", func(t *testing.T) {
		_, err := f.users.Update(ctx, member, invited.ID, domain.UserPatch{FirstName: domain.SetTo("x")})
		requireCode(t, err, apperrors.CodeForbidden)
		requireCode(t, f.users.Delete(ctx, member, invited.ID), apperrors.CodeForbidden)
	})

	t.Run("delete", func(t *testing.T) {
		requireCode(t, f.users.Delete(ctx, admin, admin.ID), apperrors.CodeForbidden)
		require.NoError(t, f.users.Delete(ctx, admin, invited.ID))
		requireCode(t, f.users.Delete(ctx, admin, invited.ID), apperrors.CodeNotFound)
	})
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.seedUser(t, "admin@example.com", "adminpw", domain.RoleAdmin, domain.UserStatusActive)
	for _, email := range []string{"a@corp.io", "b@corp.io", "c@other.io"} {
		f.clock.advance(1)
		f.seedUser(t, email, "pw1234", domain.RoleUser, domain.UserStatusActive)
	}

	list, err := f.users.List(ctx, admin, "corp", service.PageRequest{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Users, 1)
	assert.Equal(t, "b@corp.io", list.Users[0].Email)
	assert.Equal(t, service.Pagination{Page: 1, Limit: 1, Total: 2, Pages: 2}, list.Pagination)

	for _, page := range []service.PageRequest{{Page: 0, Limit: 10}, {Page: 1, Limit: 0}, {Page: 1, Limit: 101}} {
		_, err := f.users.List(ctx, admin, "", page)
		requireCode(t, err, apperrors.CodeValidation)
	}
}
