// Package database owns the PostgreSQL connection pool shared by all bounded
// contexts. Repositories run their statements through database/sql (pgx stdlib
// driver) so the same *sql.Tx can be handed to Watermill's SQL publisher.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"

	"github.com/blueledger/blueledger/pkg/logger"
)

const (
	defaultTxRetries   = 5
	retryBaseDelay     = 10 * time.Millisecond
	retryMaxDelay      = 500 * time.Millisecond
	pingTimeout        = 5 * time.Second
	pgSerialization    = "40001"
	pgDeadlockDetected = "40P01"
)

// ErrTxContention is returned when a transaction still conflicts after all
// retries are spent. Callers surface it as a generic failure.
var ErrTxContention = errors.New("transaction contention: retries exhausted")

// DBTX is the statement surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Database wraps a pgx pool exposed as *sql.DB.
type Database struct {
	pool      *pgxpool.Pool
	db        *sql.DB
	log       logger.Logger
	txRetries uint64
}

// Option customises a Database.
type Option func(*Database)

// WithTxRetries sets how many times WithTx replays a transaction that failed
// with a serialization failure or deadlock.
func WithTxRetries(n int) Option {
	return func(d *Database) {
		if n >= 0 {
			d.txRetries = uint64(n)
		}
	}
}

// NewPool connects to PostgreSQL and verifies the connection with a ping.
func NewPool(ctx context.Context, url string, log logger.Logger, opts ...Option) (*Database, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	d := &Database{
		pool:      pool,
		db:        stdlib.OpenDBFromPool(pool),
		log:       log,
		txRetries: defaultTxRetries,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// DB returns the pooled *sql.DB for non-transactional reads.
func (d *Database) DB() *sql.DB {
	return d.db
}

// WithTx runs fn inside a READ COMMITTED transaction. fn must be safe to
// replay: on a serialization failure or deadlock the whole transaction is
// rolled back and fn runs again, up to the configured retry budget. Any
// other error from fn rolls back and is returned unchanged.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	backoff := retry.WithMaxRetries(d.txRetries,
		retry.WithCappedDuration(retryMaxDelay, retry.WithJitterPercent(20, retry.NewExponential(retryBaseDelay))))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := d.runTx(ctx, fn)
		if err != nil && IsContention(err) {
			d.log.WarnContext(ctx, "database: transaction contention, retrying", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil && IsContention(err) {
		return fmt.Errorf("%w: %w", ErrTxContention, err)
	}
	return err
}

func (d *Database) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsContention reports whether err is a PostgreSQL serialization failure or
// deadlock, i.e. a transaction the caller may safely replay.
func IsContention(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerialization || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Ping checks the database connection health.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (d *Database) Close() {
	_ = d.db.Close()
	d.pool.Close()
}
