package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yourusername/login-system/internal/account"
	"github.com/yourusername/login-system/internal/account/postgres"
	"github.com/yourusername/login-system/internal/account/redisstore"
	"github.com/yourusername/login-system/internal/config"
)

// openStore は STORE_DRIVER に応じたアカウントストアと後始末関数を返します。
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (account.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory account store; accounts are lost on restart")
		return account.NewMemoryStore(), func() {}, nil

	case config.StoreRedis:
		store, err := redisstore.Connect(ctx, cfg.StoreRedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("close redis", "error", err)
			}
		}, nil

	case config.StorePostgres:
		store, pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
