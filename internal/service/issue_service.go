package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/cache"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// UnassignedFilter selects issues without an assignee.
const UnassignedFilter = "unassigned"

// IssueService coordinates issue workflows.
type IssueService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	counts     *cache.StatusCounts
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo  repository.IssueRepository
	UserRepo   repository.UserRepository
	CountCache *cache.StatusCounts
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// IssueCreateInput describes issue creation. Empty enums take defaults.
type IssueCreateInput struct {
	Title       string
	Description *string
	Severity    domain.Severity
	Priority    domain.Priority
	AssignedTo  *string
	DueDate     *time.Time
}

// IssueFilterInput carries raw filter values as received from callers.
type IssueFilterInput struct {
	Search     string
	Status     string
	Priority   string
	Severity   string
	AssignedTo string
	CreatedBy  string
}

// IssueListQuery describes a list request.
type IssueListQuery struct {
	Filter    IssueFilterInput
	Page      PageRequest
	SortBy    string
	SortOrder string
}

// IssueList is a filtered page plus tracker-wide status counts.
type IssueList struct {
	Issues     []domain.Issue
	Pagination Pagination
	Counts     domain.StatusCounts
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		counts:     deps.CountCache,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create stores a new issue reported by actor.
func (s *IssueService) Create(ctx context.Context, actor domain.Actor, in IssueCreateInput) (*domain.Issue, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("Title is required", map[string]any{"title": "required"})
	}
	severity := in.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}
	if !severity.Valid() {
		return nil, invalidField("severity")
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalidField("priority")
	}
	assignee := blankToNil(in.AssignedTo)
	if assignee != nil {
		if err := s.checkAssignee(ctx, *assignee); err != nil {
			return nil, err
		}
	}

	issue := &domain.Issue{
		Title:       title,
		Description: emptyToNil(in.Description),
		Severity:    severity,
		Priority:    priority,
		Status:      domain.IssueStatusOpen,
		CreatedBy:   actor.ID,
		AssignedTo:  assignee,
		DueDate:     in.DueDate,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.EventIssueCreated, issue.ID, &actor.ID, events.IssueCreatedPayload{
		Title:    issue.Title,
		Severity: issue.Severity,
		Priority: issue.Priority,
	}))
	return s.find(ctx, issue.ID)
}

// List returns one page of matching issues with global status counts.
func (s *IssueService) List(ctx context.Context, actor domain.Actor, q IssueListQuery) (*IssueList, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := q.Page.validate(); err != nil {
		return nil, err
	}
	filter, err := buildIssueFilter(q.Filter)
	if err != nil {
		return nil, err
	}

	issues, total, err := s.issues.List(ctx, filter, repository.ParseIssueSort(q.SortBy, q.SortOrder), q.Page.window())
	if err != nil {
		return nil, err
	}
	counts, err := s.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &IssueList{Issues: issues, Pagination: newPagination(q.Page, total), Counts: counts}, nil
}

// StatusCounts returns the tracker-wide count per status, served from cache
// when available.
func (s *IssueService) StatusCounts(ctx context.Context) (domain.StatusCounts, error) {
	if counts, ok := s.counts.Get(ctx); ok {
		return counts, nil
	}
	counts, err := s.issues.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	s.counts.Set(ctx, counts)
	return counts, nil
}

// Get returns one issue.
func (s *IssueService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Issue, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// Update applies a partial edit. Only fields set in patch change.
func (s *IssueService) Update(ctx context.Context, actor domain.Actor, id string, patch domain.IssuePatch) (*domain.Issue, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status.Set && (patch.Status.Value == nil || !patch.Status.Value.Valid()) {
		return nil, invalidField("status")
	}
	if patch.Severity.Set && (patch.Severity.Value == nil || !patch.Severity.Value.Valid()) {
		return nil, invalidField("severity")
	}
	if patch.Priority.Set && (patch.Priority.Value == nil || !patch.Priority.Value.Valid()) {
		return nil, invalidField("priority")
	}
	if patch.Title.Set {
		patch.Title.Value = blankToNil(patch.Title.Value)
		if patch.Title.Value == nil {
			return nil, apperrors.NewValidationError("Title cannot be empty", map[string]any{"title": "required"})
		}
	}
	if patch.AssignedTo.Set {
		patch.AssignedTo.Value = blankToNil(patch.AssignedTo.Value)
		if patch.AssignedTo.Value != nil {
			if err := s.checkAssignee(ctx, *patch.AssignedTo.Value); err != nil {
				return nil, err
			}
		}
	}
	if patch.Description.Set {
		patch.Description.Value = emptyToNil(patch.Description.Value)
	}
	if patch.Empty() {
		return nil, apperrors.NewValidationError("No fields to update", nil)
	}

	if err := s.issues.Update(ctx, current.ID, patch); err != nil {
		return nil, notFound(err, "Issue")
	}
	s.publish(ctx, events.New(events.EventIssueUpdated, current.ID, &actor.ID, events.IssueUpdatedPayload{Fields: patchedFields(patch)}))
	if patch.Status.Set && *patch.Status.Value != current.Status {
		s.publish(ctx, events.New(events.EventIssueStatusChanged, current.ID, &actor.ID, events.IssueStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: *patch.Status.Value,
		}))
	}
	return s.find(ctx, current.ID)
}

// ChangeStatus moves an issue to status without touching other fields.
func (s *IssueService) ChangeStatus(ctx context.Context, actor domain.Actor, id string, status domain.IssueStatus) (*domain.Issue, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalidField("status")
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.issues.Update(ctx, current.ID, domain.IssuePatch{Status: domain.SetTo(status)}); err != nil {
		return nil, notFound(err, "Issue")
	}
	s.publish(ctx, events.New(events.EventIssueStatusChanged, current.ID, &actor.ID, events.IssueStatusChangedPayload{
		OldStatus: current.Status,
		NewStatus: status,
	}))
	return s.find(ctx, current.ID)
}

// Delete removes an issue.
func (s *IssueService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := auth.RequireActor(actor); err != nil {
		return err
	}
	if !validID(id) {
		return apperrors.NewNotFound("Issue", nil)
	}
	if err := s.issues.Delete(ctx, id); err != nil {
		return notFound(err, "Issue")
	}
	s.publish(ctx, events.New(events.EventIssueDeleted, id, &actor.ID, nil))
	return nil
}

func (s *IssueService) find(ctx context.Context, id string) (*domain.Issue, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("Issue", nil)
	}
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Issue")
	}
	return issue, nil
}

// checkAssignee requires id to name an active account.
func (s *IssueService) checkAssignee(ctx context.Context, id string) error {
	if !validID(id) {
		return apperrors.NewNotFound("Assigned user", nil)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("Assigned user", nil)
		}
		return err
	}
	if user.Status != domain.UserStatusActive {
		return apperrors.NewNotFound("Assigned user", nil)
	}
	return nil
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// buildIssueFilter validates raw filter values.
func buildIssueFilter(in IssueFilterInput) (repository.IssueFilter, error) {
	filter := repository.IssueFilter{Search: strings.TrimSpace(in.Search)}

	if in.Status != "" {
		status := domain.IssueStatus(in.Status)
		if !status.Valid() {
			return filter, invalidField("status")
		}
		filter.Status = &status
	}
	if in.Priority != "" {
		priority := domain.Priority(in.Priority)
		if !priority.Valid() {
			return filter, invalidField("priority")
		}
		filter.Priority = &priority
	}
	if in.Severity != "" {
		severity := domain.Severity(in.Severity)
		if !severity.Valid() {
			return filter, invalidField("severity")
		}
		filter.Severity = &severity
	}
	switch assignee := strings.TrimSpace(in.AssignedTo); {
	case assignee == "":
	case strings.EqualFold(assignee, UnassignedFilter):
		filter.Unassigned = true
	case validID(assignee):
		filter.AssignedTo = &assignee
	default:
		return filter, invalidField("assigned_to")
	}
	if creator := strings.TrimSpace(in.CreatedBy); creator != "" {
		if !validID(creator) {
			return filter, invalidField("created_by")
		}
		filter.CreatedBy = &creator
	}
	return filter, nil
}

func invalidField(field string) error {
	return apperrors.NewValidationError("Invalid "+field, map[string]any{field: "invalid value"})
}

// emptyToNil maps an empty string to nil and keeps other values verbatim.
func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func patchedFields(p domain.IssuePatch) []string {
	fields := []string{}
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Title.Set, "title")
	add(p.Description.Set, "description")
	add(p.Severity.Set, "severity")
	add(p.Priority.Set, "priority")
	add(p.Status.Set, "status")
	add(p.AssignedTo.Set, "assigned_to")
	add(p.DueDate.Set, "due_date")
	return fields
}
