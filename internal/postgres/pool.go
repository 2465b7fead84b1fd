// Package postgres implements every relrag repository port plus the
// UnitOfWork/UnitOfWorkRunner over jackc/pgx/v5 and pgxpool, grounded on
// internal/persistence/databases/pool.go's newPgPool and
// internal/persistence/databases/postgres_vector.go /
// postgres_search.go's query idioms.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// OpenPool opens a connection pool against dsn with maxConns as the pool
// ceiling, registers the pgvector codec on every new connection so
// []float32 embeddings can be bound directly to the chunk.embedding
// column, and verifies connectivity with a short-lived ping before
// returning.
func OpenPool(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
