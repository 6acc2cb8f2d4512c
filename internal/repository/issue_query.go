package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// IssueFilter captures issue search parameters. All set fields are combined
// with AND.
type IssueFilter struct {
	Search     string
	Status     *domain.IssueStatus
	Priority   *domain.Priority
	Severity   *domain.Severity
	AssignedTo *string
	// Unassigned restricts results to issues without an assignee and takes
	// precedence over AssignedTo.
	Unassigned bool
	CreatedBy  *string
	// FromDate and ToDate bound the calendar day of created_at, inclusive.
	FromDate *time.Time
	ToDate   *time.Time
}

// SortField is an allow-listed issue ordering column.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByDueDate   SortField = "due_date"
)

// SortOrder is the ordering direction.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// IssueSort describes list ordering.
type IssueSort struct {
	Field SortField
	Order SortOrder
}

// ParseIssueSort normalizes raw sort parameters. Unknown fields fall back to
// created_at and unknown directions to DESC.
func ParseIssueSort(field, order string) IssueSort {
	sort := IssueSort{Field: SortByCreatedAt, Order: SortDesc}
	switch SortField(strings.ToLower(strings.TrimSpace(field))) {
	case SortByDueDate:
		sort.Field = SortByDueDate
	}
	if SortOrder(strings.ToUpper(strings.TrimSpace(order))) == SortAsc {
		sort.Order = SortAsc
	}
	return sort
}

// Page is a resolved limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

const issueSelect = `SELECT i.id, i.title, i.description, i.severity, i.priority, i.status, i.created_by,
               i.assigned_to, i.due_date, i.created_at, i.updated_at, cu.email, au.email
        FROM issues i
        LEFT JOIN users cu ON cu.id = i.created_by
        LEFT JOIN users au ON au.id = i.assigned_to`

// issueWhere renders the filter as a WHERE clause with positional arguments.
func issueWhere(filter IssueFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		placeholder := arg(likePattern(search))
		clauses = append(clauses, fmt.Sprintf("(i.title ILIKE %s OR i.description ILIKE %s)", placeholder, placeholder))
	}
	if filter.Status != nil {
		clauses = append(clauses, "i.status="+arg(*filter.Status))
	}
	if filter.Priority != nil {
		clauses = append(clauses, "i.priority="+arg(*filter.Priority))
	}
	if filter.Severity != nil {
		clauses = append(clauses, "i.severity="+arg(*filter.Severity))
	}
	switch {
	case filter.Unassigned:
		clauses = append(clauses, "i.assigned_to IS NULL")
	case filter.AssignedTo != nil:
		clauses = append(clauses, "i.assigned_to="+arg(*filter.AssignedTo))
	}
	if filter.CreatedBy != nil {
		clauses = append(clauses, "i.created_by="+arg(*filter.CreatedBy))
	}
	if filter.FromDate != nil {
		clauses = append(clauses, "(i.created_at AT TIME ZONE 'UTC')::date >= "+arg(filter.FromDate.Format(time.DateOnly))+"::date")
	}
	if filter.ToDate != nil {
		clauses = append(clauses, "(i.created_at AT TIME ZONE 'UTC')::date <= "+arg(filter.ToDate.Format(time.DateOnly))+"::date")
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// issueOrder renders the ORDER BY clause. Due dates always sort NULLs last
// with newest-created as the tie-break.
func issueOrder(sort IssueSort) string {
	order := SortDesc
	if sort.Order == SortAsc {
		order = SortAsc
	}
	if sort.Field == SortByDueDate {
		return fmt.Sprintf("ORDER BY i.due_date IS NULL, i.due_date %s, i.created_at DESC", order)
	}
	return fmt.Sprintf("ORDER BY i.created_at %s", order)
}
