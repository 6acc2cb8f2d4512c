package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/spec-kit/issue-tracker/internal/repository"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based page window.
type PageRequest struct {
	Page  int
	Limit int
}

// Pagination describes the returned window.
type Pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
}

func (p PageRequest) validate() error {
	if p.Page < 1 || p.Limit < 1 || p.Limit > MaxLimit {
		return apperrors.NewValidationError("Invalid pagination parameters", map[string]any{
			"page":  p.Page,
			"limit": p.Limit,
		})
	}
	return nil
}

func (p PageRequest) window() repository.Page {
	return repository.Page{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}

func newPagination(p PageRequest, total int) Pagination {
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: (total + p.Limit - 1) / p.Limit,
	}
}

// validID reports whether id can name a stored record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// notFound converts repository.ErrNotFound into a NotFound domain error and
// passes other errors through.
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}
