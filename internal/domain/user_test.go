package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to UserStatus
		want     bool
	}{
		{UserStatusInvited, UserStatusActive, false},
		{UserStatusActive, UserStatusInactive, true},
		{UserStatusInactive, UserStatusActive, true},
		{UserStatusActive, UserStatusActive, true},
		{UserStatusInvited, UserStatusInactive, false},
		{UserStatusActive, UserStatusInvited, false},
		{UserStatusInactive, UserStatusInvited, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPatchHelpers(t *testing.T) {
	set := SetTo("x")
	assert.True(t, set.Set)
	assert.Equal(t, "x", *set.Value)

	cleared := Clear[string]()
	assert.True(t, cleared.Set)
	assert.Nil(t, cleared.Value)

	assert.True(t, IssuePatch{}.Empty())
	assert.False(t, IssuePatch{DueDate: Clear[time.Time]()}.Empty())
	assert.True(t, UserPatch{}.Empty())
	assert.False(t, UserPatch{Role: SetTo(RoleAdmin)}.Empty())
}
