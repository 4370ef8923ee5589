package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogotex/contentstore/internal/archive"
	"github.com/gogotex/contentstore/internal/config"
	"github.com/gogotex/contentstore/internal/content/repository"
	"github.com/gogotex/contentstore/internal/content/service"
	"github.com/gogotex/contentstore/internal/replica"
	"github.com/gogotex/contentstore/internal/server"
	"github.com/gogotex/contentstore/pkg/logger"
	"github.com/gogotex/contentstore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s redis=%v minio=%v", cfg.Store.Driver, cfg.Redis.Addr() != "", cfg.MinIO.Endpoint != "")

	ctx := context.Background()

	// Retry/backoff when opening the store to tolerate startup races
	const maxAttempts = 5
	backoff := time.Second
	var store repository.Store
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		store, err = repository.Open(ctx, cfg)
		if err == nil {
			break
		}
		logger.Warnf("attempt %d/%d: failed to open %s store: %v", attempt, maxAttempts, cfg.Store.Driver, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if err != nil {
		logger.Fatalf("could not open %s store after %d attempts: %v", cfg.Store.Driver, maxAttempts, err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	checks := map[string]server.Pinger{"store": store}
	opts := []service.Option{service.WithMaxRetries(cfg.Content.MaxRetries)}

	// Redis carries the replica barrier and, optionally, the shared rate limiter
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis at %s not reachable yet: %v", addr, err)
		}
		defer func() { _ = rdb.Close() }()
		syncer := replica.NewRedisSyncer(rdb, cfg.Sync.KeyPrefix, cfg.Sync.Channel, cfg.Sync.Timeout)
		opts = append(opts, service.WithSyncer(syncer))
		checks["replica"] = syncer
		logger.Infof("replica sync via redis %s (channel %s)", addr, cfg.Sync.Channel)
	} else {
		logger.Infof("no replica configured; writes are acknowledged after commit")
	}

	if mc, ok := archive.FromConfig(cfg); ok {
		arch, err := archive.NewMinIOArchiver(mc)
		if err != nil {
			logger.Warnf("snapshots disabled: %v", err)
		} else {
			opts = append(opts, service.WithArchiver(arch))
			logger.Infof("snapshots before replace go to bucket %s", mc.Bucket)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := server.NewRouter(server.Deps{
		Content:   service.New(store, opts...),
		Checks:    checks,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
	})

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting content service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
