package roles

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MrEthical07/goIdentity/internal/paging"
)

var (
	// ErrDuplicateCode is returned when a role code is already taken.
	ErrDuplicateCode = errors.New("role code already exists")
	// ErrNotFound is returned when no role matches.
	ErrNotFound = errors.New("role not found")
	// ErrForbidden is returned when deleting a built-in role.
	ErrForbidden = errors.New("built-in role cannot be deleted")
)

// ProtectedIDs are the built-in roles that Delete refuses.
var ProtectedIDs = []int64{1, 2}

// IsProtected reports whether id names a built-in role.
func IsProtected(id int64) bool {
	return slices.Contains(ProtectedIDs, id)
}

// Store is an in-memory role catalogue. It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	byID   map[int64]*Role
	byCode map[string]int64
	nextID int64
	now    func() time.Time
}

// NewStore returns a store containing seeds. A nil clock defaults to time.Now.
func NewStore(now func() time.Time, seeds ...Seed) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		byID:   make(map[int64]*Role, len(seeds)),
		byCode: make(map[string]int64, len(seeds)),
		nextID: 1,
		now:    now,
	}

	created := now()
	for _, seed := range seeds {
		switch {
		case seed.ID <= 0:
			return nil, fmt.Errorf("roles: seed %q has non-positive id %d", seed.Code, seed.ID)
		case seed.Code == "":
			return nil, fmt.Errorf("roles: seed %d has empty code", seed.ID)
		}
		if _, ok := s.byID[seed.ID]; ok {
			return nil, fmt.Errorf("roles: duplicate seed id %d", seed.ID)
		}
		if _, ok := s.byCode[seed.Code]; ok {
			return nil, fmt.Errorf("roles: duplicate seed code %q", seed.Code)
		}
		s.byID[seed.ID] = &Role{
			ID:          seed.ID,
			Name:        seed.Name,
			Code:        seed.Code,
			Description: seed.Description,
			CreatedAt:   created,
		}
		s.byCode[seed.Code] = seed.ID
		if seed.ID >= s.nextID {
			s.nextID = seed.ID + 1
		}
	}
	return s, nil
}

// Create inserts a role with the next id.
func (s *Store) Create(ctx context.Context, in NewRole) (Role, error) {
	if err := ctx.Err(); err != nil {
		return Role{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byCode[in.Code]; ok {
		return Role{}, ErrDuplicateCode
	}
	r := &Role{
		ID:          s.nextID,
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	s.nextID++
	s.byID[r.ID] = r
	s.byCode[r.Code] = r.ID
	return *r, nil
}

// Get returns the role with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Role, error) {
	if err := ctx.Err(); err != nil {
		return Role{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return *r, nil
}

// GetByCode returns the role whose code equals code.
func (s *Store) GetByCode(ctx context.Context, code string) (Role, error) {
	if err := ctx.Err(); err != nil {
		return Role{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byCode[code]
	if !ok {
		return Role{}, ErrNotFound
	}
	return *s.byID[id], nil
}

// List returns one page of roles ordered by id. The keyword matches name or
// code, case-insensitively.
func (s *Store) List(ctx context.Context, q paging.Query) (paging.Page[Role], error) {
	if err := ctx.Err(); err != nil {
		return paging.Page[Role]{}, err
	}

	s.mu.Lock()
	matched := make([]Role, 0, len(s.byID))
	for _, r := range s.byID {
		if paging.Match(q.Keyword, r.Name, r.Code) {
			matched = append(matched, *r)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b Role) int {
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

// Update applies the non-nil fields of u. A new code must not belong to any
// other role.
func (s *Store) Update(ctx context.Context, id int64, u Update) (Role, error) {
	if err := ctx.Err(); err != nil {
		return Role{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	if u.Code != nil && *u.Code != r.Code {
		if _, taken := s.byCode[*u.Code]; taken {
			return Role{}, ErrDuplicateCode
		}
		delete(s.byCode, r.Code)
		r.Code = *u.Code
		s.byCode[r.Code] = r.ID
	}
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	return *r, nil
}

// Delete removes the role with id and returns it.
func (s *Store) Delete(ctx context.Context, id int64) (Role, error) {
	if err := ctx.Err(); err != nil {
		return Role{}, err
	}
	if IsProtected(id) {
		return Role{}, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byCode, r.Code)
	return *r, nil
}

// Len reports the number of stored roles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
