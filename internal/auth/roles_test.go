package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/issue-tracker/internal/domain"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

func TestGuards(t *testing.T) {
	admin := domain.Actor{ID: "a", Role: domain.RoleAdmin, Status: domain.UserStatusActive}
	member := domain.Actor{ID: "u", Role: domain.RoleUser, Status: domain.UserStatusActive}

	assert.NoError(t, RequireActor(member))
	assert.True(t, apperrors.HasCode(RequireActor(domain.Actor{}), apperrors.CodeUnauthorized))
	assert.True(t, apperrors.HasCode(RequireActor(domain.Actor{ID: "x", Status: domain.UserStatusInactive}), apperrors.CodeForbidden))

	assert.NoError(t, RequireAdmin(admin))
	assert.True(t, apperrors.HasCode(RequireAdmin(member), apperrors.CodeForbidden))

	assert.NoError(t, ForbidSelf(admin, "other", "nope"))
	assert.True(t, apperrors.HasCode(ForbidSelf(admin, "a", "nope"), apperrors.CodeForbidden))
}
