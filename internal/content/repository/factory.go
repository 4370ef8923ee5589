package repository

import (
	"context"
	"fmt"

	"github.com/gogotex/contentstore/internal/config"
	"github.com/gogotex/contentstore/internal/database"
)

// Open creates the Store selected by cfg.Store.Driver.
//
// Supported drivers:
//
//	"memory"   - in-memory (ephemeral, for local runs)
//	"sqlite"   - SQLite database at cfg.SQLite.Path (default)
//	"mongo"    - MongoDB collections in cfg.MongoDB.Database
//	"postgres" - PostgreSQL through GORM
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return NewMemoryRepo(), nil
	case "sqlite", "":
		db, err := database.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		repo, err := NewSQLiteRepo(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo, nil
	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, err
		}
		return NewMongoRepo(client.Database(cfg.MongoDB.Database)), nil
	case "postgres":
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Timeout)
		if err != nil {
			return nil, err
		}
		repo := NewPostgresRepo(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
