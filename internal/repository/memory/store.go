// Package memory provides in-process repositories with the same semantics as
// the Postgres ones. They back development runs without a database and the
// service tests.
package memory

import (
	"sync"
	"time"
)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store holds users and issues behind one lock so issue reads can join
// account emails.
type Store struct {
	mu     sync.RWMutex
	now    func() time.Time
	users  map[string]*userRecord
	issues map[string]*issueRecord
	seq    int64
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		users:  make(map[string]*userRecord),
		issues: make(map[string]*issueRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Issues returns the issue repository view of the store.
func (s *Store) Issues() *IssueRepository {
	return &IssueRepository{store: s}
}

// next returns a monotonically increasing insertion sequence.
func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
