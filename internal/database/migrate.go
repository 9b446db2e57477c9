package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	nuts "github.com/vaudience/go-nuts"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies the embedded schema migrations to the relational store.
type Migrator struct {
	db DB
}

func NewMigrator(db DB) *Migrator {
	return &Migrator{db: db}
}

// Up runs all pending migrations. Already being at the latest version is not an error.
func (m *Migrator) Up() error {
	return m.run(func(mg *migrate.Migrate) error {
		if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		return nil
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down() error {
	return m.run(func(mg *migrate.Migrate) error {
		if err := mg.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		return nil
	})
}

// Version returns the applied version and dirty flag; 0 when nothing is applied.
func (m *Migrator) Version() (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := m.run(func(mg *migrate.Migrate) error {
		var err error
		version, dirty, err = mg.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty = 0, false
			return nil
		}
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

// run hands fn a migrate instance bound to a dedicated connection from the
// pool. The connection goes back to the pool when run returns; the shared
// *sql.DB stays open.
func (m *Migrator) run(fn func(*migrate.Migrate) error) error {
	ctx := context.Background()

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	conn, err := m.db.GetDB().Conn(ctx)
	if err != nil {
		src.Close()
		return fmt.Errorf("failed to acquire migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		src.Close()
		conn.Close()
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	mg.Log = migrateLogger{}

	runErr := fn(mg)
	srcErr, dbErr := mg.Close()
	if srcErr != nil || dbErr != nil {
		nuts.L.Warnf("[Migrate] closing migrate instance: source=%v database=%v", srcErr, dbErr)
	}
	if runErr != nil {
		return runErr
	}
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	nuts.L.Infof("[Migrate] "+format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}
