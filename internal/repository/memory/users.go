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

type userRecord struct {
	user domain.User
	seq  int64
}

// UserRepository implements repository.UserRepository in memory.
type UserRepository struct {
	store *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if rec.user.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := s.timestamp()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = &userRecord{user: cloneUser(*user), seq: s.next()}
	return nil
}

func (r *UserRepository) Update(_ context.Context, id string, patch domain.UserPatch) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Empty() {
		return nil
	}
	if patch.FirstName.Set {
		rec.user.FirstName = clonePtr(patch.FirstName.Value)
	}
	if patch.LastName.Set {
		rec.user.LastName = clonePtr(patch.LastName.Value)
	}
	if patch.Role.Set && patch.Role.Value != nil {
		rec.user.Role = *patch.Role.Value
	}
	if patch.Status.Set && patch.Status.Value != nil {
		rec.user.Status = *patch.Status.Value
	}
	rec.user.UpdatedAt = s.timestamp()
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *UserRepository) GetInvitedByToken(_ context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.Status == domain.UserStatusInvited && u.ResetToken != nil && *u.ResetToken == token
	})
}

func (r *UserRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := []*userRecord{}
	for _, rec := range s.users {
		if search != "" && !strings.Contains(strings.ToLower(rec.user.Email), search) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.user.CreatedAt.Equal(b.user.CreatedAt) {
			return a.user.CreatedAt.After(b.user.CreatedAt)
		}
		return a.seq > b.seq
	})

	users := []domain.User{}
	for _, rec := range window(matched, filter.Limit, filter.Offset) {
		users = append(users, cloneUser(rec.user))
	}
	return users, len(matched), nil
}

func (r *UserRepository) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.user.ResetToken = &token
	expiry := expiresAt.UTC()
	rec.user.ResetTokenExpiry = &expiry
	rec.user.UpdatedAt = s.timestamp()
	return nil
}

func (r *UserRepository) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		u := &rec.user
		if u.ResetToken == nil || *u.ResetToken != token || u.Status == domain.UserStatusInvited {
			continue
		}
		if u.ResetTokenExpiry == nil || !u.ResetTokenExpiry.After(now) {
			continue
		}
		u.PasswordHash = &passwordHash
		u.ResetToken = nil
		u.ResetTokenExpiry = nil
		u.UpdatedAt = s.timestamp()
		return u.ID, nil
	}
	return "", repository.ErrNotFound
}

func (r *UserRepository) ConsumeInvitation(_ context.Context, id, token, passwordHash string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u := &rec.user
	if u.Status != domain.UserStatusInvited || u.ResetToken == nil || *u.ResetToken != token {
		return repository.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.Status = domain.UserStatusActive
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = s.timestamp()
	return nil
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if match(&rec.user) {
			u := cloneUser(rec.user)
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// email returns the address of id, or nil when the user is gone.
func (s *Store) email(id *string) *string {
	if id == nil {
		return nil
	}
	rec, ok := s.users[*id]
	if !ok {
		return nil
	}
	email := rec.user.Email
	return &email
}

func cloneUser(u domain.User) domain.User {
	u.PasswordHash = clonePtr(u.PasswordHash)
	u.FirstName = clonePtr(u.FirstName)
	u.LastName = clonePtr(u.LastName)
	u.ResetToken = clonePtr(u.ResetToken)
	u.ResetTokenExpiry = clonePtr(u.ResetTokenExpiry)
	u.InvitedBy = clonePtr(u.InvitedBy)
	u.InvitedAt = clonePtr(u.InvitedAt)
	return u
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
