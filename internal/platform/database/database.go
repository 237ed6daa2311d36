package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/george/smart-hire/internal/platform/config"
)

// Database はpgxpoolベースの接続を保持します
type Database struct {
	pool *pgxpool.Pool
}

// New は設定からコネクションプールを作成します
func New(ctx context.Context, cfg config.DatabaseConfig) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{pool: pool}, nil
}

// Pool はコネクションプールを返します
func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

// Close はコネクションプールを閉じます
func (d *Database) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}
