package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueUpdated       EventType = "issue_updated"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueDeleted       EventType = "issue_deleted"
	EventUserInvited        EventType = "user_invited"
	EventUserActivated      EventType = "user_activated"
	EventPasswordReset      EventType = "password_reset"
)

// IssueEvents lists every event that changes issue data.
var IssueEvents = []EventType{
	EventIssueCreated,
	EventIssueUpdated,
	EventIssueStatusChanged,
	EventIssueDeleted,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType EventType, subjectID string, actorID *string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title    string          `json:"title"`
	Severity domain.Severity `json:"severity"`
	Priority domain.Priority `json:"priority"`
}

// IssueUpdatedPayload lists the columns that changed.
type IssueUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
}

// UserInvitedPayload payload.
type UserInvitedPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}
