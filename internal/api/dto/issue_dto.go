package dto

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/service"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Severity    domain.Severity `json:"severity"`
	Priority    domain.Priority `json:"priority"`
	AssignedTo  *string         `json:"assigned_to"`
	DueDate     *string         `json:"due_date"`
}

// Input validates the request and maps it onto the service input.
func (r CreateIssueRequest) Input() (service.IssueCreateInput, error) {
	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return service.IssueCreateInput{}, err
	}
	return service.IssueCreateInput{
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		Priority:    r.Priority,
		AssignedTo:  r.AssignedTo,
		DueDate:     due,
	}, nil
}

// UpdateIssueRequest payload. Absent fields stay untouched. An empty string
// or null clears description, assigned_to and due_date.
type UpdateIssueRequest struct {
	Title       Optional[string]             `json:"title"`
	Description Optional[string]             `json:"description"`
	Severity    Optional[domain.Severity]    `json:"severity"`
	Priority    Optional[domain.Priority]    `json:"priority"`
	Status      Optional[domain.IssueStatus] `json:"status"`
	AssignedTo  Optional[string]             `json:"assigned_to"`
	DueDate     Optional[string]             `json:"due_date"`
}

// Patch validates the request and converts it into a sparse update.
func (r UpdateIssueRequest) Patch() (domain.IssuePatch, error) {
	patch := domain.IssuePatch{
		Title:       r.Title.Patch(),
		Description: r.Description.Patch(),
		Severity:    r.Severity.Patch(),
		Priority:    r.Priority.Patch(),
		Status:      r.Status.Patch(),
		AssignedTo:  r.AssignedTo.Patch(),
	}
	if r.DueDate.Set {
		var raw *string
		if !r.DueDate.Null {
			raw = &r.DueDate.Value
		}
		due, err := parseDueDate(raw)
		if err != nil {
			return patch, err
		}
		patch.DueDate = domain.Patch[time.Time]{Set: true, Value: due}
	}
	return patch, nil
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
}

// parseDueDate parses a YYYY-MM-DD day. Empty input means no due date.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*raw)
	if err := validation.Validate(v, validation.Date(time.DateOnly)); err != nil {
		return nil, apperrors.NewValidationError("Invalid due_date", map[string]any{"due_date": err.Error()})
	}
	day, _ := time.Parse(time.DateOnly, v)
	return &day, nil
}

// IssueResponse is the public view of an issue.
type IssueResponse struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     *string            `json:"description"`
	Severity        domain.Severity    `json:"severity"`
	Priority        domain.Priority    `json:"priority"`
	Status          domain.IssueStatus `json:"status"`
	CreatedBy       string             `json:"created_by"`
	CreatedByEmail  *string            `json:"created_by_email"`
	AssignedTo      *string            `json:"assigned_to"`
	AssignedToEmail *string            `json:"assigned_to_email"`
	DueDate         *string            `json:"due_date"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewIssueResponse maps an issue.
func NewIssueResponse(is *domain.Issue) IssueResponse {
	var due *string
	if is.DueDate != nil {
		d := is.DueDate.Format(time.DateOnly)
		due = &d
	}
	return IssueResponse{
		ID:              is.ID,
		Title:           is.Title,
		Description:     is.Description,
		Severity:        is.Severity,
		Priority:        is.Priority,
		Status:          is.Status,
		CreatedBy:       is.CreatedBy,
		CreatedByEmail:  is.CreatedByEmail,
		AssignedTo:      is.AssignedTo,
		AssignedToEmail: is.AssignedToEmail,
		DueDate:         due,
		CreatedAt:       is.CreatedAt,
		UpdatedAt:       is.UpdatedAt,
	}
}

// NewIssueResponses maps a slice of issues.
func NewIssueResponses(issues []domain.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for i := range issues {
		out = append(out, NewIssueResponse(&issues[i]))
	}
	return out
}

// IssueListResponse is a page of issues plus tracker-wide status counts.
type IssueListResponse struct {
	Issues     []IssueResponse            `json:"issues"`
	Pagination PaginationResponse         `json:"pagination"`
	Counts     map[domain.IssueStatus]int `json:"counts"`
}

// NewIssueListResponse maps an issue page.
func NewIssueListResponse(l *service.IssueList) IssueListResponse {
	return IssueListResponse{
		Issues:     NewIssueResponses(l.Issues),
		Pagination: NewPaginationResponse(l.Pagination),
		Counts:     l.Counts,
	}
}
