package storage

import (
	"context"
	"fmt"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
)

// Open 根据配置创建报告存储
func Open(ctx context.Context, cfg config.StorageConfig) (Repository, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil

	case "postgres":
		if cfg.DB.Host == "" {
			return nil, fmt.Errorf("postgres host is missing")
		}
		repo, err := OpenPostgres(ctx, cfg.DB.DSN())
		if err != nil {
			return nil, err
		}
		return repo, nil

	case "sqlite":
		if cfg.SQLite.Path == "" {
			return nil, fmt.Errorf("sqlite path is missing")
		}
		repo, err := OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("redis addr is missing")
		}
		repo, err := OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
