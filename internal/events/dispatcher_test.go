package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversToAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	var seen []string

	d.Subscribe(EventIssueCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.SubjectID)
		return errors.New("boom")
	})
	d.Subscribe(EventIssueCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventIssueDeleted, func(context.Context, Event) error {
		seen = append(seen, "deleted")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), New(EventIssueCreated, "i-1", nil, nil)))
	assert.Equal(t, []string{"first:i-1", "second:i-1"}, seen)
}

func TestNewStampsEvent(t *testing.T) {
	actor := "u-1"
	e := New(EventUserInvited, "u-2", &actor, UserInvitedPayload{Email: "x@example.com"})
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, &actor, e.ActorID)
}
