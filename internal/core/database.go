// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/persona-advice/internal/config"
)

const pgUniqueViolation = "23505"

// Database is the process-wide pool. It satisfies Transactor so services
// take it directly.
type Database struct {
	DB *sqlx.DB

	connector driver.Connector
}

const applicationName = "persona-advice"

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	connCfg.RuntimeParams["application_name"] = applicationName
	if cfg.StatementTimeout > 0 {
		connCfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(
			cfg.StatementTimeout.Milliseconds(), 10)
	}

	connector := stdlib.GetConnector(*connCfg)
	db := sqlx.NewDb(sql.OpenDB(connector), "pgx")
	configurePool(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{DB: db, connector: connector}, nil
}

// NewDatabaseFromConnector wraps an already configured connector without
// pinging it.
func NewDatabaseFromConnector(connector driver.Connector, driverName string) *Database {
	return &Database{
		DB:        sqlx.NewDb(sql.OpenDB(connector), driverName),
		connector: connector,
	}
}

// OpenDedicated opens a single-connection pool on the same server, separate
// from DB. Closing it leaves DB untouched; the caller owns it.
func (d *Database) OpenDedicated() (*sql.DB, error) {
	if d.connector == nil {
		return nil, errors.New("database has no connector")
	}
	pool := sql.OpenDB(d.connector)
	pool.SetMaxOpenConns(1)
	return pool, nil
}

func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// InTx satisfies Transactor.
func (d *Database) InTx(ctx context.Context, fn func(tx DBTX) error) error {
	return InTx(ctx, d.DB, func(tx *sqlx.Tx) error {
		return fn(tx)
	})
}

type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

// Transactor runs fn inside a single commit. Every write a request makes goes
// through it so a failure leaves nothing half-applied.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx DBTX) error) error
}

func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// RequireAffected converts a zero row count into ErrNotFound.
func RequireAffected(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return nil
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}
