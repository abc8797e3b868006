package roles

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/goIdentity/internal/paging"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(func() time.Time { return time.Unix(1700000000, 0) },
		Seed{ID: 1, Name: "Administrator", Code: "admin", Description: "full access"},
		Seed{ID: 2, Name: "User", Code: "user", Description: "regular account"},
	)
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

func TestCreateAndGet(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	r, err := s.Create(ctx, NewRole{Name: "Auditor", Code: "auditor"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.ID)

	got, err := s.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	got, err = s.GetByCode(ctx, "auditor")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)

	_, err = s.Create(ctx, NewRole{Name: "Other", Code: "auditor"})
	require.ErrorIs(t, err, ErrDuplicateCode)
	assert.Equal(t, 3, s.Len())
}

func TestUpdateCodeUniqueness(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	r, err := s.Create(ctx, NewRole{Name: "Auditor", Code: "auditor"})
	require.NoError(t, err)

	_, err = s.Update(ctx, r.ID, Update{Code: ptr("user")})
	require.ErrorIs(t, err, ErrDuplicateCode)

	// Keeping the current code is not a conflict.
	got, err := s.Update(ctx, r.ID, Update{Code: ptr("auditor"), Description: ptr("read only")})
	require.NoError(t, err)
	assert.Equal(t, "read only", got.Description)

	got, err = s.Update(ctx, r.ID, Update{Code: ptr("viewer"), Name: ptr("Viewer")})
	require.NoError(t, err)
	assert.Equal(t, "viewer", got.Code)
	assert.Equal(t, "Viewer", got.Name)

	_, err = s.GetByCode(ctx, "auditor")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Create(ctx, NewRole{Name: "Auditor", Code: "auditor"})
	require.NoError(t, err, "released code can be reused")

	_, err = s.Update(ctx, 99, Update{Name: ptr("x")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProtection(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	for _, id := range ProtectedIDs {
		_, err := s.Delete(ctx, id)
		require.ErrorIs(t, err, ErrForbidden)
	}

	r, err := s.Create(ctx, NewRole{Name: "Temp", Code: "temp"})
	require.NoError(t, err)

	_, err = s.Delete(ctx, r.ID)
	require.NoError(t, err)
	_, err = s.Delete(ctx, r.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, s.Len())
}

func TestConcurrentDeleteOnce(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	r, err := s.Create(ctx, NewRole{Name: "Temp", Code: "temp"})
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Delete(ctx, r.ID); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
}

func TestListKeywordAndPaging(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	page, err := s.List(ctx, paging.Query{Page: 1, PageSize: 10, Keyword: "ADMIN"})
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, "admin", page.List[0].Code)

	page, err = s.List(ctx, paging.Query{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.List, 1)
	assert.Equal(t, int64(2), page.List[0].ID)
}

func TestNewStoreRejectsBadSeeds(t *testing.T) {
	_, err := NewStore(nil, Seed{ID: 1, Code: "a"}, Seed{ID: 2, Code: "a"})
	require.Error(t, err)
	_, err = NewStore(nil, Seed{ID: 0, Code: "a"})
	require.Error(t, err)
	_, err = NewStore(nil, Seed{ID: 1})
	require.Error(t, err)
}
