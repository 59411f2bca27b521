package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type migrationRunner interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Close() (error, error)
}

var newMigrate = func(sourceURL, databaseURL string) (migrationRunner, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Migrator applies the versioned SQL files under a migrations directory.
type Migrator struct {
	m migrationRunner
}

func NewMigrator(dsn, dir string) (*Migrator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving migrations dir: %w", err)
	}
	m, err := newMigrate("file://"+filepath.ToSlash(abs), dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies every pending migration. An already current schema is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil {
		return fmt.Errorf("rolling back migrations: %w", err)
	}
	return nil
}

// Version reports the applied schema version. Dirty means a migration failed
// midway and needs manual repair.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
