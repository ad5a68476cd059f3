package main

import (
	"context"
	"fmt"

	"payhook/internal/config"
	"payhook/internal/store/memory"
	"payhook/internal/store/postgres"
	redisstore "payhook/internal/store/redis"
	"payhook/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// openStore builds the record store selected by STORE_BACKEND. The returned
// func releases its connections.
func openStore(ctx context.Context, cfg config.Cfg) (repositories.RecordStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(cfg.DB.DSN); err != nil {
				return nil, nil, err
			}
		}
		pool := postgres.MustOpen(ctx, cfg.DB.DSN)
		log.Info().Msg("using postgres record store")
		return postgres.NewRecordStore(pool), pool.Close, nil

	case "redis":
		client := redisstore.MustConnect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		log.Info().Str("addr", cfg.Redis.Addr).Str("prefix", cfg.Redis.KeyPrefix).Msg("using redis record store")
		return redisstore.NewRecordStore(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil

	case "memory":
		log.Warn().Msg("using in-memory record store; records are lost on restart")
		return memory.NewRecordStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
