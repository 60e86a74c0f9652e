// Package storage persists the book collection as one JSON value in a
// key-value backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dom "bookshelf/internal/domain"
)

// DefaultKey is the key the collection lives under unless configured otherwise.
const DefaultKey = "BOOKSHELF_APPS"

// ErrUnavailable marks every failure to reach the backend or to decode the stored value.
var ErrUnavailable = errors.New("storage unavailable")

// KV is a key-value capability. Get reports ok=false when the key has no value.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Adapter serializes the full collection under a single key. It keeps no copy of it.
type Adapter struct {
	kv  KV
	key string
}

// NewAdapter returns an Adapter writing to key, or DefaultKey when key is empty.
func NewAdapter(kv KV, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{kv: kv, key: key}
}

// Key returns the storage key.
func (a *Adapter) Key() string { return a.key }

// Save replaces the stored value with books, in order.
func (a *Adapter) Save(ctx context.Context, books []dom.Book) error {
	if books == nil {
		books = []dom.Book{}
	}
	b, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.key, err)
	}
	if err := a.kv.Set(ctx, a.key, b); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrUnavailable, a.key, err)
	}
	return nil
}

// Load returns the stored collection, or an empty one if nothing was saved yet.
func (a *Adapter) Load(ctx context.Context) ([]dom.Book, error) {
	b, ok, err := a.kv.Get(ctx, a.key)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrUnavailable, a.key, err)
	}
	if !ok {
		return []dom.Book{}, nil
	}
	var books []dom.Book
	if err := json.Unmarshal(b, &books); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, a.key, err)
	}
	if books == nil {
		books = []dom.Book{}
	}
	return books, nil
}
