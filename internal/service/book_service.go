package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/metrics"
	"bookshelf/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidYear  = errors.New("year must be a number")
	ErrInvalidInput = errors.New("title and author are required")
)

// Persister mirrors the collection to storage.
type Persister interface {
	Save(ctx context.Context, books []dom.Book) error
	Load(ctx context.Context) ([]dom.Book, error)
}

// Publisher is raised once after every successful mutation.
type Publisher interface {
	Publish()
}

// DefaultSaveTimeout bounds one save of the collection.
const DefaultSaveTimeout = 5 * time.Second

type Option func(*BookService)

// WithSaveTimeout bounds each save independently of the caller's context.
func WithSaveTimeout(d time.Duration) Option {
	return func(s *BookService) {
		if d > 0 {
			s.saveTimeout = d
		}
	}
}

// WithClock replaces time.Now for id generation.
func WithClock(now func() time.Time) Option {
	return func(s *BookService) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *BookService) { s.metrics = m }
}

// WithDegradeHandler is called once, outside the lock, when storage becomes
// unavailable and the service switches to memory-only.
func WithDegradeHandler(fn func(error)) Option {
	return func(s *BookService) { s.onDegrade = fn }
}

// BookService owns the ordered book collection. Every mutation runs under one
// lock together with its save, then raises the signal after the lock is released.
type BookService struct {
	persist   Persister
	signal    Publisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	onDegrade func(error)

	saveTimeout time.Duration

	mu         sync.RWMutex
	books      []dom.Book
	ids        idGenerator
	revision   uint64
	memoryOnly bool
}

// NewBookService returns an empty service. A nil Persister keeps the collection in memory only.
func NewBookService(p Persister, sig Publisher, log *zap.Logger, opts ...Option) *BookService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &BookService{
		persist:     p,
		signal:      sig,
		log:         log,
		now:         time.Now,
		books:       []dom.Book{},
		memoryOnly:  p == nil,
		saveTimeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the stored one and raises the signal.
// On failure the collection starts empty and the service stays memory-only,
// so a value it could not read is never overwritten.
func (s *BookService) Load(ctx context.Context) error {
	var (
		books []dom.Book
		err   error
	)
	if s.persist != nil {
		books, err = s.persist.Load(ctx)
	}

	s.mu.Lock()
	s.books = []dom.Book{}
	if err == nil {
		s.books = append(s.books, books...)
		for _, b := range books {
			s.ids.observe(b.ID)
		}
	}
	degraded := err != nil && !s.memoryOnly
	if err != nil {
		s.memoryOnly = true
	}
	s.revision++
	n := len(s.books)
	s.mu.Unlock()

	if degraded {
		s.degrade(err)
	}
	s.log.Info("collection loaded", zap.Int("books", n), zap.Bool("memory_only", s.MemoryOnly()))
	s.publish()
	return err
}

// Add appends a new book with a fresh id. year is coerced to an integer.
func (s *BookService) Add(ctx context.Context, title, author, year string, isComplete bool) (dom.Book, error) {
	title, author, y, err := validate(title, author, year)
	if err != nil {
		return dom.Book{}, err
	}
	return s.mutate(ctx, "add", func() (dom.Book, error) {
		b := dom.Book{
			ID:         s.ids.next(s.now()),
			Title:      title,
			Author:     author,
			Year:       y,
			IsComplete: isComplete,
		}
		s.books = append(s.books, b)
		return b, nil
	})
}

func (s *BookService) FindByID(id int64) (dom.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return dom.Book{}, false
	}
	return s.books[i], true
}

// FindIndexByID returns the collection position of id, or -1.
func (s *BookService) FindIndexByID(id int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id)
}

func (s *BookService) ToggleComplete(ctx context.Context, id int64) (dom.Book, error) {
	return s.mutate(ctx, "toggle", func() (dom.Book, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return dom.Book{}, ErrNotFound
		}
		s.books[i].IsComplete = !s.books[i].IsComplete
		return s.books[i], nil
	})
}

func (s *BookService) Remove(ctx context.Context, id int64) error {
	_, err := s.mutate(ctx, "remove", func() (dom.Book, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return dom.Book{}, ErrNotFound
		}
		b := s.books[i]
		s.books = slices.Delete(s.books, i, i+1)
		return b, nil
	})
	return err
}

// Update replaces title, author and year. Nothing changes unless all three are valid.
func (s *BookService) Update(ctx context.Context, id int64, title, author, year string) (dom.Book, error) {
	return s.mutate(ctx, "update", func() (dom.Book, error) {
		i := s.indexLocked(id)
		if i < 0 {
			return dom.Book{}, ErrNotFound
		}
		t, a, y, err := validate(title, author, year)
		if err != nil {
			return dom.Book{}, err
		}
		s.books[i].Title = t
		s.books[i].Author = a
		s.books[i].Year = y
		return s.books[i], nil
	})
}

// List returns a copy of the collection in order.
func (s *BookService) List() []dom.Book {
	books, _ := s.Snapshot()
	return books
}

// Snapshot returns a copy of the collection and the revision it belongs to.
func (s *BookService) Snapshot() ([]dom.Book, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.books), s.revision
}

func (s *BookService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Revision increases with every load and successful mutation.
func (s *BookService) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// MemoryOnly reports whether changes are no longer being saved.
func (s *BookService) MemoryOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryOnly
}

func (s *BookService) mutate(ctx context.Context, op string, fn func() (dom.Book, error)) (dom.Book, error) {
	s.mu.Lock()
	b, err := fn()
	if err != nil {
		s.mu.Unlock()
		return dom.Book{}, err
	}
	s.revision++
	var saveErr error
	if !s.memoryOnly {
		// a save outlives the caller's context; only storage failures degrade
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
		saveErr = s.persist.Save(saveCtx, slices.Clone(s.books))
		cancel()
		if saveErr != nil {
			s.memoryOnly = true
		}
	}
	s.mu.Unlock()

	if saveErr != nil {
		s.degrade(saveErr)
	}
	s.metrics.Mutation(op)
	s.log.Debug("book mutated", zap.String("op", op), zap.Int64("id", b.ID))
	s.publish()
	return b, nil
}

func (s *BookService) indexLocked(id int64) int {
	return slices.IndexFunc(s.books, func(b dom.Book) bool { return b.ID == id })
}

func (s *BookService) degrade(err error) {
	s.log.Warn("storage unavailable, continuing in memory only", zap.Error(err))
	s.metrics.Degraded(true)
	if s.onDegrade != nil {
		s.onDegrade(err)
	}
}

func (s *BookService) publish() {
	if s.signal != nil {
		s.signal.Publish()
	}
}

func validate(title, author, year string) (string, string, int, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return "", "", 0, ErrInvalidInput
	}
	y, err := utils.ParseYear(year)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %v", ErrInvalidYear, err)
	}
	return title, author, y, nil
}

// idGenerator hands out millisecond timestamps, bumped past the last id so
// calls within the same millisecond still get distinct, increasing ids.
// Callers hold BookService.mu.
type idGenerator struct {
	last int64
}

func (g *idGenerator) next(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

func (g *idGenerator) observe(id int64) {
	if id > g.last {
		g.last = id
	}
}
