// Package database owns the PostgreSQL connection pool. A Database is built
// once in main, handed to the components that need it and closed on
// shutdown; nothing in the module holds a package-level pool.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/itemsapi/pkg/logger"
)

// PoolConfig bounds the pool.
type PoolConfig struct {
	MaxConns    int
	IdleTimeout time.Duration
}

// DefaultPoolConfig is a small pool with a short idle timeout.
var DefaultPoolConfig = PoolConfig{MaxConns: 5, IdleTimeout: 30 * time.Second}

// Database is a bounded *sql.DB over the pgx stdlib driver.
type Database struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens a pool for url and verifies it with a ping.
func Open(ctx context.Context, url string, cfg PoolConfig, log logger.Logger) (*Database, error) {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultPoolConfig.MaxConns
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultPoolConfig.IdleTimeout
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	log.InfoContext(ctx, "database pool opened", "max_conns", cfg.MaxConns, "idle_timeout", cfg.IdleTimeout)
	return &Database{db: db, log: log}, nil
}

// New wraps an existing *sql.DB. The Database takes ownership of it.
func New(db *sql.DB, log logger.Logger) *Database {
	return &Database{db: db, log: log}
}

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping checks the pool can reach the server.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close closes the pool, waiting for checked-out connections to return.
func (d *Database) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("database: close: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise, including when fn panics; the
// connection goes back to the pool on every path.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				d.log.ErrorContext(ctx, "database: rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

// IsCheckViolation reports whether err is a PostgreSQL CHECK constraint failure.
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}
