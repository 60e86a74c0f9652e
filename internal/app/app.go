package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/cache"
	"bookshelf/internal/config"
	"bookshelf/internal/controller"
	"bookshelf/internal/metrics"
	"bookshelf/internal/notify"
	"bookshelf/internal/service"
	"bookshelf/internal/storage"
	"bookshelf/internal/view"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SignalName is the change signal raised after every mutation.
const SignalName = "render-book"

type Option func(*options)

type options struct {
	notifier controller.Notifier
	sink     view.Sink
}

// WithNotifier shows notices through n in addition to the notice log.
func WithNotifier(n controller.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithSink receives every render in addition to the metrics gauges.
func WithSink(s view.Sink) Option {
	return func(o *options) { o.sink = s }
}

// App owns every component of one bookshelf session.
type App struct {
	cfg config.Config
	log *zap.Logger

	db    *pgxpool.Pool
	redis *redis.Client
	close []func() error

	Metrics    *metrics.Metrics
	Signal     *notify.Signal
	Books      *service.BookService
	Shelves    *service.ShelfService
	Renderer   *view.Renderer
	Notices    *controller.NoticeLog
	Controller *controller.Controller

	router *gin.Engine
}

// New connects the configured storage, loads the collection and wires the
// components together. A storage that cannot be read is not fatal: the
// session continues in memory only and the user is told once.
func New(ctx context.Context, cfg config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{cfg: cfg, log: log}

	kv, err := a.openKV(ctx)
	if err != nil {
		_ = a.release()
		return nil, err
	}

	a.Metrics = metrics.New()
	a.Signal = notify.New(SignalName, cfg.UI.MaxSubscribers)
	a.Notices = controller.NewNoticeLog(cfg.UI.NoticeHistory)
	notifier := controller.Notifiers{a.Notices, o.notifier}
	noticeFor := cfg.UI.NoticeDuration.Duration()
	if noticeFor <= 0 {
		noticeFor = controller.DefaultNoticeDuration
	}

	a.Books = service.NewBookService(
		storage.NewAdapter(kv, cfg.Storage.Key), a.Signal, log,
		service.WithMetrics(a.Metrics),
		service.WithDegradeHandler(func(err error) {
			notifier.Notify("Storage is unavailable, changes will not be saved", controller.SeverityError, noticeFor)
		}),
	)

	var sink view.Sink = a.Metrics
	if o.sink != nil {
		extra := o.sink
		sink = view.SinkFunc(func(s view.Shelves) {
			a.Metrics.Replace(s)
			extra.Replace(s)
		})
	}
	a.Renderer = view.NewRenderer(a.Books, sink)
	if err := a.Renderer.Attach(a.Signal); err != nil {
		_ = a.release()
		return nil, fmt.Errorf("attach renderer: %w", err)
	}

	var shelfCache service.ShelfCache
	if cfg.UI.ViewCache && cfg.RedisEnabled() {
		rdb, err := a.redisClient(ctx)
		if err != nil {
			_ = a.release()
			return nil, err
		}
		sc := cache.NewShelfCache(rdb, cfg.Storage.Key, cfg.Redis.DefaultTTL.Duration())
		cancel, err := sc.Attach(a.Signal, log)
		if err != nil {
			_ = a.release()
			return nil, fmt.Errorf("attach shelf cache: %w", err)
		}
		a.close = append(a.close, func() error { cancel(); return nil })
		shelfCache = sc
	}
	a.Shelves = service.NewShelfService(a.Books, shelfCache)

	a.Controller = controller.New(a.Books, a.Renderer, notifier, log,
		controller.WithDialogTTL(cfg.UI.DialogTTL.Duration()),
		controller.WithNoticeDuration(noticeFor),
	)

	if err := a.Books.Load(ctx); err != nil {
		if !errors.Is(err, storage.ErrUnavailable) {
			_ = a.release()
			return nil, fmt.Errorf("load collection: %w", err)
		}
		log.Warn("starting with an empty collection", zap.Error(err))
	}
	return a, nil
}

// Router builds the HTTP engine on first use.
func (a *App) Router() *gin.Engine {
	if a.router == nil {
		a.router = newRouter(a)
	}
	return a.router
}

// Close releases storage connections. It gives up waiting once ctx is done;
// the release then finishes in the background.
func (a *App) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- a.release() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("close: %w", ctx.Err())
	}
}

func (a *App) release() error {
	if a.Renderer != nil {
		a.Renderer.Detach()
	}
	var errs []error
	for i := len(a.close) - 1; i >= 0; i-- {
		errs = append(errs, a.close[i]())
	}
	a.close = nil
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	return errors.Join(errs...)
}

func (a *App) openKV(ctx context.Context) (storage.KV, error) {
	cfg := a.cfg
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return storage.NewMemoryKV(), nil
	case config.DriverFile:
		return storage.NewFileKV(cfg.Storage.Dir)
	case config.DriverRedis:
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisKV(rdb), nil
	case config.DriverPostgres:
		db, err := newPostgres(ctx, cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := runMigrations(db); err != nil {
			return nil, err
		}
		return storage.NewPGKV(db), nil
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.close = append(a.close, db.Close)
		if err := storage.Migrate(db, "sqlite3"); err != nil {
			return nil, err
		}
		return storage.NewSQLiteKV(db), nil
	case config.DriverS3:
		return storage.NewS3KV(ctx, storage.S3Config{
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// redisClient connects once and is shared by the KV backend and the shelf cache.
func (a *App) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	rdb, err := newRedis(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	return rdb, nil
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("redis options: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return storage.Migrate(db, "postgres")
}

func newRouter(a *App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, a)
	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
