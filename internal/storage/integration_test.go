package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These run against real servers and are skipped unless the matching
// environment variable points at one.

func kvRoundTrip(t *testing.T, kv KV) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key := "BOOKSHELF_TEST_" + time.Now().Format("150405.000000000")
	a := NewAdapter(kv, key)

	books, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	require.NoError(t, a.Save(ctx, sample))
	got, err := NewAdapter(kv, key).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	require.NoError(t, a.Save(ctx, sample[:1]))
	got, err = a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample[:1], got)
}

func TestRedisKVIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	kvRoundTrip(t, NewRedisKV(rdb))
}

func TestPGKVIntegration(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	require.NoError(t, Migrate(db, "postgres"))
	require.NoError(t, db.Close())

	kvRoundTrip(t, NewPGKV(pool))
}

func TestS3KVIntegration(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}
	kv, err := NewS3KV(context.Background(), S3Config{
		Region:          os.Getenv("S3_REGION"),
		Bucket:          bucket,
		Prefix:          "bookshelf-test",
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		PathStyle:       os.Getenv("S3_ENDPOINT") != "",
	})
	require.NoError(t, err)

	kvRoundTrip(t, kv)
}
