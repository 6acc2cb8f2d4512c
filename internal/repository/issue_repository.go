package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, id string, patch domain.IssuePatch) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, filter IssueFilter, sort IssueSort, page Page) ([]domain.Issue, int, error)
	Export(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	StatusCounts(ctx context.Context) (domain.StatusCounts, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, severity, priority, status, created_by, assigned_to, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Severity,
		issue.Priority,
		issue.Status,
		issue.CreatedBy,
		issue.AssignedTo,
		issue.DueDate,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
	return translate(err)
}

func (r *issueRepository) Update(ctx context.Context, id string, patch domain.IssuePatch) error {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title.Set {
		add("title", patch.Title.Value)
	}
	if patch.Description.Set {
		add("description", patch.Description.Value)
	}
	if patch.Severity.Set {
		add("severity", patch.Severity.Value)
	}
	if patch.Priority.Set {
		add("priority", patch.Priority.Value)
	}
	if patch.Status.Set {
		add("status", patch.Status.Value)
	}
	if patch.AssignedTo.Set {
		add("assigned_to", patch.AssignedTo.Value)
	}
	if patch.DueDate.Set {
		add("due_date", patch.DueDate.Value)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE issues SET %s, updated_at=NOW() WHERE id=$%d`, strings.Join(sets, ", "), len(args))
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	rows, err := r.pool.Query(ctx, issueSelect+` WHERE i.id=$1`, id)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, ErrNotFound
	}
	return &issues[0], nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter, sort IssueSort, page Page) ([]domain.Issue, int, error) {
	where, args := issueWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM issues i `+where, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := fmt.Sprintf(`%s %s %s LIMIT %d OFFSET %d`, issueSelect, where, issueOrder(sort), page.Limit, page.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()
	issues, err := scanIssues(rows)
	if err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *issueRepository) Export(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	where, args := issueWhere(filter)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`%s %s ORDER BY i.created_at DESC`, issueSelect, where), args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) StatusCounts(ctx context.Context) (domain.StatusCounts, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	counts := domain.NewStatusCounts()
	for rows.Next() {
		var (
			status domain.IssueStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	result := []domain.Issue{}
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(
			&issue.ID,
			&issue.Title,
			&issue.Description,
			&issue.Severity,
			&issue.Priority,
			&issue.Status,
			&issue.CreatedBy,
			&issue.AssignedTo,
			&issue.DueDate,
			&issue.CreatedAt,
			&issue.UpdatedAt,
			&issue.CreatedByEmail,
			&issue.AssignedToEmail,
		); err != nil {
			return nil, translate(err)
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
