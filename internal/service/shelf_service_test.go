package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"bookshelf/internal/storage"
	"bookshelf/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapCache struct {
	mu     sync.Mutex
	data   map[string]view.Shelves
	gets   int
	sets   int
	getErr error
}

func (m *mapCache) key(rev uint64, q string) string {
	return fmt.Sprintf("%d:%s", rev, q)
}

func (m *mapCache) Get(_ context.Context, rev uint64, q string) (*view.Shelves, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.data[m.key(rev, q)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mapCache) Set(_ context.Context, rev uint64, q string, s view.Shelves) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[m.key(rev, q)] = s
	return nil
}

func seededBooks(t *testing.T) *BookService {
	t.Helper()
	ctx := context.Background()
	s := NewBookService(storage.NewAdapter(storage.NewMemoryKV(), ""), nil, zap.NewNop())
	require.NoError(t, s.Load(ctx))
	_, err := s.Add(ctx, "Dune", "Herbert", "1965", false)
	require.NoError(t, err)
	_, err = s.Add(ctx, "Emma", "Austen", "1815", true)
	require.NoError(t, err)
	return s
}

func TestShelvesWithoutCache(t *testing.T) {
	svc := NewShelfService(seededBooks(t), nil)
	sh, err := svc.Shelves(context.Background(), "DUNE")
	require.NoError(t, err)
	assert.Equal(t, "DUNE", sh.Query)
	require.Len(t, sh.Incomplete, 1)
	assert.Equal(t, "Dune", sh.Incomplete[0].Title)
	assert.Empty(t, sh.Complete)
}

func TestShelvesCachedPerRevision(t *testing.T) {
	books := seededBooks(t)
	c := &mapCache{data: map[string]view.Shelves{}}
	svc := NewShelfService(books, c)
	ctx := context.Background()

	first, err := svc.Shelves(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)

	second, err := svc.Shelves(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.sets, "second read is a hit")

	// a mutation moves to a new revision, so the stale entry is never served
	_, err = books.Add(ctx, "Hyperion", "Simmons", "1989", false)
	require.NoError(t, err)
	third, err := svc.Shelves(ctx, "")
	require.NoError(t, err)
	assert.Len(t, third.Incomplete, 2)
	assert.Equal(t, 2, c.sets)
}

func TestShelvesCacheErrorFallsBackToBuild(t *testing.T) {
	c := &mapCache{data: map[string]view.Shelves{}, getErr: errors.New("redis down")}
	svc := NewShelfService(seededBooks(t), c)

	sh, err := svc.Shelves(context.Background(), "emma")
	require.NoError(t, err)
	require.Len(t, sh.Complete, 1)
	assert.Equal(t, "emma", sh.Query)
}
