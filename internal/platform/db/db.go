package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// New 创建 postgres 连接池。调用方负责 Ping 与 Close。
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}
