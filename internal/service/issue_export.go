package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/domain"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// ParseExportFormat maps anything but "csv" to JSON.
func ParseExportFormat(v string) ExportFormat {
	if strings.EqualFold(strings.TrimSpace(v), string(ExportCSV)) {
		return ExportCSV
	}
	return ExportJSON
}

// IssueExportQuery is the list filter plus an inclusive created_at date range
// in YYYY-MM-DD form.
type IssueExportQuery struct {
	Filter   IssueFilterInput
	FromDate string
	ToDate   string
	Format   ExportFormat
}

// IssueExport holds either the CSV document or the structured rows.
type IssueExport struct {
	Format ExportFormat
	CSV    []byte
	Issues []domain.Issue
}

var csvHeader = []string{
	"ID", "Title", "Description", "Severity", "Priority", "Status",
	"Created By", "Assigned To", "Created At", "Updated At",
}

// Export returns every matching issue, newest first, without pagination.
func (s *IssueService) Export(ctx context.Context, actor domain.Actor, q IssueExportQuery) (*IssueExport, error) {
	if err := auth.RequireActor(actor); err != nil {
		return nil, err
	}
	filter, err := buildIssueFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	if filter.FromDate, err = parseDay(q.FromDate, "from_date"); err != nil {
		return nil, err
	}
	if filter.ToDate, err = parseDay(q.ToDate, "to_date"); err != nil {
		return nil, err
	}

	issues, err := s.issues.Export(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &IssueExport{Format: q.Format}
	if q.Format == ExportCSV {
		out.CSV = EncodeIssuesCSV(issues)
		return out, nil
	}
	out.Format = ExportJSON
	out.Issues = issues
	return out, nil
}

func parseDay(v, field string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	day, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid "+field, map[string]any{field: "expected YYYY-MM-DD"})
	}
	return &day, nil
}

// EncodeIssuesCSV renders issues with a fixed column order. Title and
// description are always quoted; the remaining columns never contain commas.
func EncodeIssuesCSV(issues []domain.Issue) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))
	for _, issue := range issues {
		row := []string{
			issue.ID,
			quote(issue.Title),
			quote(deref(issue.Description)),
			string(issue.Severity),
			string(issue.Priority),
			string(issue.Status),
			deref(issue.CreatedByEmail),
			deref(issue.AssignedToEmail),
			issue.CreatedAt.UTC().Format(time.RFC3339),
			issue.UpdatedAt.UTC().Format(time.RFC3339),
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(row, ","))
	}
	return []byte(b.String())
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
