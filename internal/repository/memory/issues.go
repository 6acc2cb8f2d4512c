package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
)

type issueRecord struct {
	issue domain.Issue
	seq   int64
}

// IssueRepository implements repository.IssueRepository in memory.
type IssueRepository struct {
	store *Store
}

var _ repository.IssueRepository = (*IssueRepository)(nil)

func (r *IssueRepository) Create(_ context.Context, issue *domain.Issue) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	issue.ID = uuid.NewString()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	stored := cloneIssue(*issue)
	stored.CreatedByEmail = nil
	stored.AssignedToEmail = nil
	s.issues[issue.ID] = &issueRecord{issue: stored, seq: s.next()}
	return nil
}

func (r *IssueRepository) Update(_ context.Context, id string, patch domain.IssuePatch) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.issues[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Empty() {
		return nil
	}
	is := &rec.issue
	if patch.Title.Set && patch.Title.Value != nil {
		is.Title = *patch.Title.Value
	}
	if patch.Description.Set {
		is.Description = clonePtr(patch.Description.Value)
	}
	if patch.Severity.Set && patch.Severity.Value != nil {
		is.Severity = *patch.Severity.Value
	}
	if patch.Priority.Set && patch.Priority.Value != nil {
		is.Priority = *patch.Priority.Value
	}
	if patch.Status.Set && patch.Status.Value != nil {
		is.Status = *patch.Status.Value
	}
	if patch.AssignedTo.Set {
		is.AssignedTo = clonePtr(patch.AssignedTo.Value)
	}
	if patch.DueDate.Set {
		is.DueDate = clonePtr(patch.DueDate.Value)
	}
	is.UpdatedAt = s.timestamp()
	return nil
}

func (r *IssueRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.issues, id)
	return nil
}

func (r *IssueRepository) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	issue := s.joined(rec.issue)
	return &issue, nil
}

func (r *IssueRepository) List(_ context.Context, filter repository.IssueFilter, order repository.IssueSort, page repository.Page) ([]domain.Issue, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(filter)
	sortIssues(matched, order)

	issues := []domain.Issue{}
	for _, rec := range window(matched, page.Limit, page.Offset) {
		issues = append(issues, s.joined(rec.issue))
	}
	return issues, len(matched), nil
}

func (r *IssueRepository) Export(_ context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.filter(filter)
	sortIssues(matched, repository.IssueSort{Field: repository.SortByCreatedAt, Order: repository.SortDesc})

	issues := []domain.Issue{}
	for _, rec := range matched {
		issues = append(issues, s.joined(rec.issue))
	}
	return issues, nil
}

func (r *IssueRepository) StatusCounts(_ context.Context) (domain.StatusCounts, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := domain.NewStatusCounts()
	for _, rec := range s.issues {
		counts[rec.issue.Status]++
	}
	return counts, nil
}

func (s *Store) filter(f repository.IssueFilter) []*issueRecord {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := []*issueRecord{}
	for _, rec := range s.issues {
		is := rec.issue
		if search != "" {
			inTitle := strings.Contains(strings.ToLower(is.Title), search)
			inDesc := is.Description != nil && strings.Contains(strings.ToLower(*is.Description), search)
			if !inTitle && !inDesc {
				continue
			}
		}
		if f.Status != nil && is.Status != *f.Status {
			continue
		}
		if f.Priority != nil && is.Priority != *f.Priority {
			continue
		}
		if f.Severity != nil && is.Severity != *f.Severity {
			continue
		}
		if f.Unassigned {
			if is.AssignedTo != nil {
				continue
			}
		} else if f.AssignedTo != nil && (is.AssignedTo == nil || *is.AssignedTo != *f.AssignedTo) {
			continue
		}
		if f.CreatedBy != nil && is.CreatedBy != *f.CreatedBy {
			continue
		}
		created := is.CreatedAt.UTC().Format(time.DateOnly)
		if f.FromDate != nil && created < f.FromDate.Format(time.DateOnly) {
			continue
		}
		if f.ToDate != nil && created > f.ToDate.Format(time.DateOnly) {
			continue
		}
		matched = append(matched, rec)
	}
	return matched
}

func sortIssues(records []*issueRecord, order repository.IssueSort) {
	newest := func(a, b *issueRecord) bool {
		if !a.issue.CreatedAt.Equal(b.issue.CreatedAt) {
			return a.issue.CreatedAt.After(b.issue.CreatedAt)
		}
		return a.seq > b.seq
	}
	asc := order.Order == repository.SortAsc

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if order.Field == repository.SortByDueDate {
			ad, bd := a.issue.DueDate, b.issue.DueDate
			switch {
			case ad == nil && bd == nil:
				return newest(a, b)
			case ad == nil:
				return false
			case bd == nil:
				return true
			case !ad.Equal(*bd):
				if asc {
					return ad.Before(*bd)
				}
				return ad.After(*bd)
			}
			return newest(a, b)
		}
		if a.issue.CreatedAt.Equal(b.issue.CreatedAt) {
			if asc {
				return a.seq < b.seq
			}
			return a.seq > b.seq
		}
		if asc {
			return a.issue.CreatedAt.Before(b.issue.CreatedAt)
		}
		return a.issue.CreatedAt.After(b.issue.CreatedAt)
	})
}

// joined returns a copy of issue with creator and assignee emails resolved.
func (s *Store) joined(issue domain.Issue) domain.Issue {
	out := cloneIssue(issue)
	out.CreatedByEmail = s.email(&out.CreatedBy)
	out.AssignedToEmail = s.email(out.AssignedTo)
	return out
}

func cloneIssue(is domain.Issue) domain.Issue {
	is.Description = clonePtr(is.Description)
	is.AssignedTo = clonePtr(is.AssignedTo)
	is.DueDate = clonePtr(is.DueDate)
	is.CreatedByEmail = clonePtr(is.CreatedByEmail)
	is.AssignedToEmail = clonePtr(is.AssignedToEmail)
	return is
}
