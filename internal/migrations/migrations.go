// AngelaMos | 2026
// migrations.go

package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

//go:embed sql/*.sql
var files embed.FS

// Source exposes the embedded schema so callers can inspect it.
func Source() embed.FS {
	return files
}

type Migrator struct {
	m *migrate.Migrate
}

// Open runs migrations over a dedicated connection so that closing the
// migrator never closes the application pool.
func Open(db *core.Database) (*Migrator, error) {
	pool, err := db.OpenDedicated()
	if err != nil {
		return nil, fmt.Errorf("open migration pool: %w", err)
	}

	m, err := New(pool)
	if err != nil {
		_ = pool.Close() //nolint:errcheck // cleanup on setup failure
		return nil, err
	}
	return m, nil
}

// New takes ownership of pool: the migrate driver closes it on Close.
func New(pool *sql.DB) (*Migrator, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	driver, err := pgxmigrate.WithInstance(pool, &pgxmigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{m: m}, nil
}

func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		steps = 1
	}
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return version, dirty, nil
}

// Close releases the embedded source and the pool handed to New.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
