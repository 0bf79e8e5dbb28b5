package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	sharedUtils "github.com/davicafu/hexablog/internal/shared/infra/utils"
)

// Connection agrupa el pool de pgx y la vista *sql.DB que usan los repositorios.
type Connection struct {
	DB   *sql.DB
	Pool *pgxpool.Pool
}

// Open crea el pool con tracing de OpenTelemetry y espera a que Postgres responda.
func Open(ctx context.Context, databaseURL string, log *zap.Logger) (*Connection, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	err = sharedUtils.Retry(ctx, 10, 2*time.Second, func() error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			log.Warn("⏳ Postgres no disponible, reintentando...", zap.Error(pingErr))
			return pingErr
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not ping postgres: %w", err)
	}

	return &Connection{DB: stdlib.OpenDBFromPool(pool), Pool: pool}, nil
}

func (c *Connection) Close() {
	c.DB.Close()
	c.Pool.Close()
}
