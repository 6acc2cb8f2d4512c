package dto

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/service"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

func TestUpdateIssueRequestPatch(t *testing.T) {
	var req UpdateIssueRequest
	require.NoError(t, sonic.Unmarshal([]byte(`{"priority":"high","assigned_to":null,"description":"","due_date":"2024-05-02"}`), &req))

	patch, err := req.Patch()
	require.NoError(t, err)
	assert.False(t, patch.Title.Set)
	assert.False(t, patch.Status.Set)
	assert.Equal(t, domain.SetTo(domain.PriorityHigh), patch.Priority)
	assert.True(t, patch.AssignedTo.Set)
	assert.Nil(t, patch.AssignedTo.Value)
	require.True(t, patch.Description.Set)
	assert.Equal(t, "", *patch.Description.Value)
	require.NotNil(t, patch.DueDate.Value)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *patch.DueDate.Value)
}

func TestUpdateIssueRequestClearsDueDate(t *testing.T) {
	for _, body := range []string{`{"due_date":null}`, `{"due_date":""}`} {
		var req UpdateIssueRequest
		require.NoError(t, sonic.Unmarshal([]byte(body), &req))
		patch, err := req.Patch()
		require.NoError(t, err)
		assert.Equal(t, domain.Clear[time.Time](), patch.DueDate, body)
	}
}

func TestCreateIssueRequestRejectsBadDueDate(t *testing.T) {
	bad := "next week"
	_, err := CreateIssueRequest{Title: "x", DueDate: &bad}.Input()
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateUserRequestPatch(t *testing.T) {
	var req UpdateUserRequest
	require.NoError(t, sonic.Unmarshal([]byte(`{"status":"inactive","lname":null}`), &req))

	patch := req.Patch()
	assert.Equal(t, domain.SetTo(domain.UserStatusInactive), patch.Status)
	assert.Equal(t, domain.Clear[string](), patch.LastName)
	assert.False(t, patch.Role.Set)
	assert.False(t, patch.FirstName.Set)
}

func TestUserResponseHidesSecrets(t *testing.T) {
	hash, token := "hash", "token"
	body, err := sonic.Marshal(NewUserResponse(&domain.User{ID: "u1", Email: "a@example.com", PasswordHash: &hash, ResetToken: &token}))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "hash")
	assert.NotContains(t, string(body), "token")
}

func TestInviteResponseMessage(t *testing.T) {
	sent := NewInviteUserResponse(&service.InviteResult{InvitationLink: "l"})
	assert.Equal(t, "Invitation sent successfully", sent.Message)

	failed := NewInviteUserResponse(&service.InviteResult{InvitationLink: "l", Warning: "Email timeout"})
	assert.Equal(t, "User invited successfully, but email could not be sent", failed.Message)
	assert.Equal(t, "Email timeout", failed.Warning)
}
