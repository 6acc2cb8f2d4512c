package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/cache"
	"github.com/spec-kit/issue-tracker/internal/events"
)

var auditedEvents = []events.EventType{
	events.EventIssueCreated,
	events.EventIssueUpdated,
	events.EventIssueStatusChanged,
	events.EventIssueDeleted,
	events.EventUserInvited,
	events.EventUserActivated,
	events.EventPasswordReset,
}

// ActivityService reacts to domain events: it writes the audit log and keeps
// cached status counts fresh.
type ActivityService struct {
	dispatcher events.Dispatcher
	counts     *cache.StatusCounts
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, counts *cache.StatusCounts, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		counts:     counts,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range auditedEvents {
		a.dispatcher.Subscribe(eventType, a.handleAudit)
	}
	for _, eventType := range events.IssueEvents {
		a.dispatcher.Subscribe(eventType, a.handleIssueChanged)
	}
}

func (a *ActivityService) handleAudit(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.Timestamp),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", *event.ActorID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info("activity", fields...)
	return nil
}

func (a *ActivityService) handleIssueChanged(ctx context.Context, _ events.Event) error {
	a.counts.Invalidate(ctx)
	return nil
}
