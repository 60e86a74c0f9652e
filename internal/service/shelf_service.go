package service

import (
	"context"
	"strconv"
	"strings"

	"bookshelf/internal/view"

	"golang.org/x/sync/singleflight"
)

// ShelfCache stores rendered shelves per collection revision and query.
// Get returns nil, nil on a miss.
type ShelfCache interface {
	Get(ctx context.Context, revision uint64, query string) (*view.Shelves, error)
	Set(ctx context.Context, revision uint64, query string, s view.Shelves) error
}

// ShelfService answers shelf queries for API clients, each with its own filter.
type ShelfService struct {
	books *BookService
	cache ShelfCache
	sf    singleflight.Group
}

// NewShelfService creates a ShelfService. If c is nil, caching is disabled.
func NewShelfService(books *BookService, c ShelfCache) *ShelfService {
	return &ShelfService{books: books, cache: c}
}

func (s *ShelfService) Shelves(ctx context.Context, q string) (view.Shelves, error) {
	if s.cache == nil {
		return view.Build(s.books.List(), q), nil
	}
	rev := s.books.Revision()
	key := strconv.FormatUint(rev, 10) + ":" + strings.ToLower(q)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		if sh, err := s.cache.Get(ctx, rev, q); err == nil && sh != nil {
			return *sh, nil
		}
		books, cur := s.books.Snapshot()
		sh := view.Build(books, q)
		if cur == rev {
			_ = s.cache.Set(ctx, rev, q, sh)
		}
		return sh, nil
	})
	if err != nil {
		return view.Shelves{}, err
	}
	sh := v.(view.Shelves)
	// the filter ignores case, so a coalesced result only differs in the echoed query
	sh.Query = q
	return sh, nil
}
