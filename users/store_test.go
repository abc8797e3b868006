package users

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goIdentity/internal/paging"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(func() time.Time { return fixedNow },
		Seed{ID: 1, Username: "admin", PasswordHash: "h-admin", RealName: "Administrator", Email: "admin@example.com", Role: "admin"},
		Seed{ID: 2, Username: "demo", PasswordHash: "h-demo", RealName: "Demo User", Email: "demo@example.com", Role: "user"},
	)
	require.NoError(t, err)
	return s
}

func TestNewStoreRejectsBadSeeds(t *testing.T) {
	tests := []struct {
		name  string
		seeds []Seed
	}{
		{"zero id", []Seed{{ID: 0, Username: "a"}}},
		{"empty username", []Seed{{ID: 1}}},
		{"duplicate id", []Seed{{ID: 1, Username: "a"}, {ID: 1, Username: "b"}}},
		{"duplicate username", []Seed{{ID: 1, Username: "a"}, {ID: 2, Username: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStore(nil, tt.seeds...)
			require.Error(t, err)
		})
	}
}

func TestCreateAssignsNextID(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	p, err := s.Create(ctx, NewUser{Username: "carol", PasswordHash: "h", RealName: "Carol", Role: "user"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)
	assert.Equal(t, StatusEnabled, p.Status)
	assert.Equal(t, fixedNow, p.CreatedAt)

	rec, err := s.Credentials(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "h", rec.PasswordHash)
	assert.Equal(t, 3, s.Len())
}

func TestCreateDuplicateUsername(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	_, err := s.Create(ctx, NewUser{Username: "demo", PasswordHash: "x"})
	require.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 2, s.Len())

	rec, err := s.Credentials(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "h-demo", rec.PasswordHash, "existing record must be untouched")
}

func TestConcurrentCreateSameUsername(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, NewUser{Username: "race", PasswordHash: "h"}); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
	assert.Equal(t, 3, s.Len())
}

func TestConcurrentCreateDistinctIDs(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	const workers = 50
	ids := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.Create(ctx, NewUser{Username: fmt.Sprintf("user-%d", i), PasswordHash: "h"})
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestGetAndGetByUsername(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	p, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Username)

	p, err = s.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)

	_, err = s.Get(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPagination(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	page, err := s.List(ctx, paging.Query{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, "demo", page.List[0].Username)

	page, err = s.List(ctx, paging.Query{Page: 3, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Empty(t, page.List)
	assert.NotNil(t, page.List)
}

func TestListKeyword(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	page, err := s.List(ctx, paging.Query{Page: 1, PageSize: 10, Keyword: "ADMIN"})
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, int64(1), page.List[0].ID)

	page, err = s.List(ctx, paging.Query{Page: 1, PageSize: 10, Keyword: "user"})
	require.NoError(t, err)
	require.Len(t, page.List, 1, "matches realname \"Demo User\"")
	assert.Equal(t, "demo", page.List[0].Username)
}

func TestListOrderedByID(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	for i := range 20 {
		_, err := s.Create(ctx, NewUser{Username: fmt.Sprintf("u%02d", i), PasswordHash: "h"})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, paging.Query{Page: 1, PageSize: 100})
	require.NoError(t, err)
	require.Len(t, page.List, 22)
	for i := 1; i < len(page.List); i++ {
		assert.Less(t, page.List[i-1].ID, page.List[i].ID)
	}
}

func TestUpdatePartial(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	name := "Demo Renamed"
	disabled := StatusDisabled
	p, err := s.Update(ctx, 2, Update{RealName: &name, Status: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "Demo Renamed", p.RealName)
	assert.Equal(t, "demo@example.com", p.Email)
	assert.Equal(t, "user", p.Role)
	assert.Equal(t, StatusDisabled, p.Status)

	rec, err := s.Credentials(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "h-demo", rec.PasswordHash, "empty hash keeps the old one")

	_, err = s.Update(ctx, 2, Update{PasswordHash: "h-new"})
	require.NoError(t, err)
	rec, err = s.Credentials(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "h-new", rec.PasswordHash)

	_, err = s.Update(ctx, 42, Update{RealName: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	_, err := s.Delete(ctx, ProtectedAdminID)
	require.ErrorIs(t, err, ErrForbidden)

	p, err := s.Delete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Username)

	_, err = s.Delete(ctx, 2)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Credentials(ctx, "demo")
	require.ErrorIs(t, err, ErrNotFound)

	// The username is free again and gets a fresh id.
	p, err = s.Create(ctx, NewUser{Username: "demo", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)
}

func TestCanceledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, NewUser{Username: "x"})
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.List(ctx, paging.Query{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestStatusText(t *testing.T) {
	b, err := StatusDisabled.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "disabled", string(b))

	var st Status
	require.NoError(t, st.UnmarshalText([]byte("enabled")))
	assert.Equal(t, StatusEnabled, st)
	require.Error(t, st.UnmarshalText([]byte("locked")))

	_, err = Status(9).MarshalText()
	require.Error(t, err)
}

func TestReplaceHash(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	ok, err := s.ReplaceHash(ctx, 2, "stale", "h-next")
	require.NoError(t, err)
	assert.False(t, ok, "a stale expected hash must not swap")

	rec, err := s.Credentials(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "h-demo", rec.PasswordHash)

	ok, err = s.ReplaceHash(ctx, 2, "h-demo", "h-next")
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err = s.Credentials(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "h-next", rec.PasswordHash)

	_, err = s.ReplaceHash(ctx, 99, "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ReplaceHash(ctx, 2, "h-next", "")
	assert.Error(t, err)
}

func TestReplaceHashConcurrentSingleWinner(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	const workers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			ok, err := s.ReplaceHash(ctx, 2, "h-demo", fmt.Sprintf("h-%d", i))
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
