package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goIdentity/internal/paging"
)

// ProtectedAdminID is the built-in administrator that Delete refuses.
const ProtectedAdminID int64 = 1

var (
	// ErrAlreadyExists is returned by Create for a taken username.
	ErrAlreadyExists = errors.New("username already exists")
	// ErrNotFound is returned when no record matches the id or username.
	ErrNotFound = errors.New("user not found")
	// ErrForbidden is returned when deleting the built-in administrator.
	ErrForbidden = errors.New("built-in administrator cannot be deleted")
)

// Store is an in-memory credential store. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	byID       map[int64]*Record
	byUsername map[string]int64
	nextID     int64
	now        func() time.Time
}

// NewStore returns a store containing seeds. Seed ids must be positive and
// unique, as must seed usernames; the id counter continues after the largest
// seed id. A nil clock defaults to time.Now.
func NewStore(now func() time.Time, seeds ...Seed) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		byID:       make(map[int64]*Record, len(seeds)),
		byUsername: make(map[string]int64, len(seeds)),
		nextID:     1,
		now:        now,
	}

	created := now()
	for _, seed := range seeds {
		if seed.ID <= 0 {
			return nil, fmt.Errorf("users: seed %q has non-positive id %d", seed.Username, seed.ID)
		}
		if seed.Username == "" {
			return nil, fmt.Errorf("users: seed %d has empty username", seed.ID)
		}
		if _, ok := s.byID[seed.ID]; ok {
			return nil, fmt.Errorf("users: duplicate seed id %d", seed.ID)
		}
		if _, ok := s.byUsername[seed.Username]; ok {
			return nil, fmt.Errorf("users: duplicate seed username %q", seed.Username)
		}
		s.byID[seed.ID] = &Record{
			ID:           seed.ID,
			Username:     seed.Username,
			PasswordHash: seed.PasswordHash,
			RealName:     seed.RealName,
			Email:        seed.Email,
			Role:         seed.Role,
			Status:       StatusEnabled,
			CreatedAt:    created,
		}
		s.byUsername[seed.Username] = seed.ID
		if seed.ID >= s.nextID {
			s.nextID = seed.ID + 1
		}
	}
	return s, nil
}

// Create inserts a new enabled account and returns its profile.
func (s *Store) Create(ctx context.Context, in NewUser) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[in.Username]; ok {
		return Profile{}, ErrAlreadyExists
	}

	rec := &Record{
		ID:           s.nextID,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		RealName:     in.RealName,
		Email:        in.Email,
		Role:         in.Role,
		Status:       StatusEnabled,
		CreatedAt:    s.now(),
	}
	s.nextID++
	s.byID[rec.ID] = rec
	s.byUsername[rec.Username] = rec.ID
	return rec.Profile(), nil
}

// Credentials returns the full record, hash included, for username.
func (s *Store) Credentials(ctx context.Context, username string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *s.byID[id], nil
}

// Get returns the profile with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return rec.Profile(), nil
}

// GetByUsername returns the profile for username.
func (s *Store) GetByUsername(ctx context.Context, username string) (Profile, error) {
	rec, err := s.Credentials(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	return rec.Profile(), nil
}

// List returns one page of profiles ordered by id. The keyword matches
// username or real name, case-insensitively.
func (s *Store) List(ctx context.Context, q paging.Query) (paging.Page[Profile], error) {
	if err := ctx.Err(); err != nil {
		return paging.Page[Profile]{}, err
	}

	s.mu.Lock()
	matched := make([]Profile, 0, len(s.byID))
	for _, rec := range s.byID {
		if paging.Match(q.Keyword, rec.Username, rec.RealName) {
			matched = append(matched, rec.Profile())
		}
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b Profile) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return paging.Slice(matched, q), nil
}

// Update applies the non-nil fields of u to the record with id.
func (s *Store) Update(ctx context.Context, id int64, u Update) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	if u.RealName != nil {
		rec.RealName = *u.RealName
	}
	if u.Email != nil {
		rec.Email = *u.Email
	}
	if u.Role != nil {
		rec.Role = *u.Role
	}
	if u.Status != nil {
		rec.Status = *u.Status
	}
	if u.PasswordHash != "" {
		rec.PasswordHash = u.PasswordHash
	}
	return rec.Profile(), nil
}

// ReplaceHash swaps the password hash of id to newHash only while the stored
// hash still equals oldHash. It reports false when another writer got there
// first; the record is then left untouched.
func (s *Store) ReplaceHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if newHash == "" {
		return false, errors.New("users: empty password hash")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if rec.PasswordHash != oldHash {
		return false, nil
	}
	rec.PasswordHash = newHash
	return true, nil
}

// Delete removes the record with id and returns its last profile.
func (s *Store) Delete(ctx context.Context, id int64) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}
	if id == ProtectedAdminID {
		return Profile{}, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byUsername, rec.Username)
	return rec.Profile(), nil
}

// Len reports the number of stored accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
