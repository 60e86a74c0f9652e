package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/notify"
	"bookshelf/internal/view"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyShelves = "shelves:"

// ShelfCache caches rendered shelves in Redis, keyed by collection revision
// and normalized query.
type ShelfCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewShelfCache returns a ShelfCache whose keys start with namespace.
func NewShelfCache(rdb *redis.Client, namespace string, ttl time.Duration) *ShelfCache {
	return &ShelfCache{rdb: rdb, prefix: namespace + ":" + keyShelves, ttl: ttl}
}

// Get returns cached shelves or nil if miss.
func (c *ShelfCache) Get(ctx context.Context, revision uint64, q string) (*view.Shelves, error) {
	b, err := c.rdb.Get(ctx, c.key(revision, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s view.Shelves
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Set stores the shelves in cache.
func (c *ShelfCache) Set(ctx context.Context, revision uint64, q string, s view.Shelves) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(revision, q), b, c.ttl).Err()
}

// InvalidateAll removes every cached render under this namespace.
func (c *ShelfCache) InvalidateAll(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Attach drops cached renders whenever sig is raised. Entries of older
// revisions are never read again; this only frees the memory early.
func (c *ShelfCache) Attach(sig *notify.Signal, log *zap.Logger) (func(), error) {
	return sig.Subscribe(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.InvalidateAll(ctx); err != nil {
			log.Warn("shelf cache invalidation failed", zap.Error(err))
		}
	})
}

func (c *ShelfCache) key(revision uint64, q string) string {
	return c.prefix + strconv.FormatUint(revision, 10) + ":" + normalizeQuery(q)
}

// filtering ignores case, so queries differing only in case share an entry
func normalizeQuery(q string) string {
	return strings.ToLower(q)
}
