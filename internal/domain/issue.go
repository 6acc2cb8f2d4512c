package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

// IssueStatuses lists every status in display order.
var IssueStatuses = []IssueStatus{
	IssueStatusOpen,
	IssueStatusInProgress,
	IssueStatusResolved,
	IssueStatusClosed,
}

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// Severity enumerates the impact of an issue.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Priority enumerates the urgency of an issue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Issue is a tracked problem report. CreatedByEmail and AssignedToEmail are
// read-side joins and are never written.
type Issue struct {
	ID              string
	Title           string
	Description     *string
	Severity        Severity
	Priority        Priority
	Status          IssueStatus
	CreatedBy       string
	AssignedTo      *string
	DueDate         *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CreatedByEmail  *string
	AssignedToEmail *string
}

// IssuePatch is a sparse update of an issue.
type IssuePatch struct {
	Title       Patch[string]
	Description Patch[string]
	Severity    Patch[Severity]
	Priority    Patch[Priority]
	Status      Patch[IssueStatus]
	AssignedTo  Patch[string]
	DueDate     Patch[time.Time]
}

// Empty reports whether no field was supplied.
func (p IssuePatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Severity.Set && !p.Priority.Set &&
		!p.Status.Set && !p.AssignedTo.Set && !p.DueDate.Set
}

// StatusCounts is the number of issues per status across the whole tracker.
type StatusCounts map[IssueStatus]int

// NewStatusCounts returns counts with every status present at zero.
func NewStatusCounts() StatusCounts {
	counts := make(StatusCounts, len(IssueStatuses))
	for _, s := range IssueStatuses {
		counts[s] = 0
	}
	return counts
}
