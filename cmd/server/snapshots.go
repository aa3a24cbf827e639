package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"domainagent/internal/assistant"
	"domainagent/internal/conversation/store"
	"domainagent/internal/platform/config"
	"domainagent/internal/platform/postgres"
	"domainagent/internal/platform/redis"
)

// expirer is implemented by stores that need an explicit TTL sweep.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type snapshotBackend struct {
	store   assistant.SnapshotStore
	expirer expirer
	health  func(ctx context.Context) error
	close   func()
}

// openSnapshots connects the configured snapshot backend.
func openSnapshots(ctx context.Context, cfg config.Config, log *slog.Logger) (*snapshotBackend, error) {
	switch cfg.Snapshot.Backend {
	case config.SnapshotRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("conversation snapshots in redis")
		return &snapshotBackend{
			store:  store.NewRedis(client.Client, store.WithRedisTTL(cfg.Snapshot.TTL)),
			health: client.Health,
			close:  func() { _ = client.Close() },
		}, nil

	case config.SnapshotPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pg := store.NewPostgres(db, store.WithPostgresTTL(cfg.Snapshot.TTL))
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("conversation snapshots in postgres")
		return &snapshotBackend{
			store:   pg,
			expirer: pg,
			health:  pingDB(db),
			close:   func() { _ = db.Close() },
		}, nil

	default:
		mem := store.NewInMemory(store.WithMemoryTTL(cfg.Snapshot.TTL))
		log.Info("conversation snapshots in memory")
		return &snapshotBackend{
			store:   mem,
			expirer: mem,
			health:  func(context.Context) error { return nil },
			close:   func() {},
		}, nil
	}
}

func pingDB(db *sql.DB) func(ctx context.Context) error {
	return db.PingContext
}
