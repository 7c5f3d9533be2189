package app

import (
	"context"
	"database/sql"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"userweb/internal/config"
	"userweb/internal/logging"
	"userweb/internal/session"
	"userweb/internal/store"
)

type Infra struct {
	DB       *sql.DB
	Sessions session.Store
}

func setupInfra(ctx context.Context, cfg config.Config, log logging.Logger) (*Infra, error) {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx, db); err != nil {
		return nil, err
	}

	log.Info(ctx, "database ready", "path", cfg.DatabasePath)

	// Without Redis, sessions live in process memory and die with it.
	if cfg.RedisAddr == "" {
		log.Info(ctx, "sessions in memory")
		return &Infra{DB: db, Sessions: session.NewMemoryStore(cfg.SessionTTL)}, nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	log.Info(ctx, "redis ready", "addr", cfg.RedisAddr)

	return &Infra{
		DB:       db,
		Sessions: session.NewRedisStore(client, cfg.SessionTTL),
	}, nil
}
