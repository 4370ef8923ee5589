package cli

import (
	"context"
	"io"
	"time"

	"github.com/gogotex/contentstore/internal/archive"
	"github.com/gogotex/contentstore/internal/config"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/gogotex/contentstore/internal/content/service"
	"github.com/gogotex/contentstore/internal/replica"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore reads and writes archived document versions.
type SnapshotStore interface {
	archive.Archiver
	Open(ctx context.Context, documentID string, version int64) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, documentID string, version int64, expires time.Duration) (string, error)
}

// Env is what commands operate on. Snapshots and Syncer are nil when the
// deployment has no MinIO or replica configured.
type Env struct {
	Store      repository.Store
	Snapshots  SnapshotStore
	Syncer     replica.Syncer
	MaxRetries int

	closers []func()
}

type EnvLoader func(ctx context.Context) (*Env, error)

func (e *Env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// Service builds a content service over the environment, so CLI writes go
// through the same snapshot and replica steps as API writes.
func (e *Env) Service() *service.Service {
	opts := []service.Option{}
	if e.MaxRetries > 0 {
		opts = append(opts, service.WithMaxRetries(e.MaxRetries))
	}
	if e.Snapshots != nil {
		opts = append(opts, service.WithArchiver(e.Snapshots))
	}
	if e.Syncer != nil {
		opts = append(opts, service.WithSyncer(e.Syncer))
	}
	return service.New(e.Store, opts...)
}

// LoadEnvFromConfig reads the same environment variables as the server.
func LoadEnvFromConfig(ctx context.Context) (*Env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	env := &Env{Store: store, MaxRetries: cfg.Content.MaxRetries}
	env.closers = append(env.closers, func() { _ = store.Close(context.Background()) })

	if mc, ok := archive.FromConfig(cfg); ok {
		arch, err := archive.NewMinIOArchiver(mc)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Snapshots = arch
	}
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		env.closers = append(env.closers, func() { _ = rdb.Close() })
		env.Syncer = replica.NewRedisSyncer(rdb, cfg.Sync.KeyPrefix, cfg.Sync.Channel, cfg.Sync.Timeout)
	}
	return env, nil
}
