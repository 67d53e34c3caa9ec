package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/forgeevents/eventcatalog/internal/catalog"
	"github.com/forgeevents/eventcatalog/internal/cli/config"
	"github.com/forgeevents/eventcatalog/internal/lock"
	"github.com/forgeevents/eventcatalog/internal/logging"
)

// globalOptions holds the persistent flags of the root command
type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

// env is what every command works with: configuration, a logger and,
// once opened, the store.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *catalog.Store
}

// setup loads the configuration and builds the logger. Configuration
// errors surface before any connection is attempted.
func (g *globalOptions) setup() (*env, error) {
	path := g.configPath
	if path == "" {
		if found, err := config.FindConfigFile(); err == nil {
			path = found
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}

	logger, err := logging.New(cfg.Log.Logging())
	if err != nil {
		return nil, &config.ConfigurationError{Key: "log", Err: err}
	}
	logging.SetGlobal(logger)

	return &env{cfg: cfg, logger: logger}, nil
}

// open connects to the catalog store.
func (e *env) open(ctx context.Context) error {
	opts, err := e.cfg.StoreOptions()
	if err != nil {
		return err
	}
	opts.Logger = e.logger

	store, err := catalog.Open(ctx, opts)
	if err != nil {
		return err
	}
	e.store = store
	return nil
}

// locker returns the run lock backend: Redis when configured, otherwise a
// no-op. The returned close function releases the client.
func (e *env) locker() (lock.Locker, func(), error) {
	if e.cfg.Redis.URL == "" {
		return lock.NopLocker{}, func() {}, nil
	}

	redisOpts, err := redis.ParseURL(e.cfg.Redis.URL)
	if err != nil {
		return nil, nil, &config.ConfigurationError{Key: "redis.url", Err: err}
	}
	client := redis.NewClient(redisOpts)

	locker, err := lock.NewRedisLocker(lock.RedisLockerConfig{Client: client, TTL: e.cfg.Redis.LockTTL})
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return locker, func() { client.Close() }, nil
}

// close releases the store and flushes the logger.
func (e *env) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("failed to close catalog store", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

// withStore runs fn with an open store.
func (g *globalOptions) withStore(ctx context.Context, fn func(e *env) error) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.open(ctx); err != nil {
		return err
	}
	return fn(e)
}

// errReported marks an error whose details were already written to the
// user; Execute prints only the short message.
var errReported = errors.New("see above")

func reported(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errReported)
}
