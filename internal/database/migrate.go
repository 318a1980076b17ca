package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sanhsing/beidou-edu-server/internal/config"
	"github.com/sanhsing/beidou-edu-server/schemas"
)

// MigrateUp applies all pending schema migrations of the configured driver.
// It opens and closes its own connection.
func MigrateUp(cfg config.DatabaseConfig) error {
	return runMigration(cfg, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(cfg config.DatabaseConfig, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	return runMigration(cfg, func(m *migrate.Migrate) error {
		return m.Steps(-steps)
	})
}

// MigrationVersion returns the current schema version and whether the last migration failed halfway.
func MigrationVersion(cfg config.DatabaseConfig) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := runMigration(cfg, func(m *migrate.Migrate) error {
		var err error
		version, dirty, err = m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return version, dirty, err
}

func runMigration(cfg config.DatabaseConfig, fn func(m *migrate.Migrate) error) error {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverMySQL
	}

	source, err := iofs.New(schemas.Migrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("iofs.New() > %w", err)
	}

	db, err := Open(cfg)
	if err != nil {
		return err
	}

	var instance migratedb.Driver
	switch driver {
	case config.DriverMySQL:
		instance, err = migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	case config.DriverSQLite:
		instance, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	case config.DriverPostgres:
		instance, err = migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create %s migration driver: %w", driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		_ = instance.Close()
		return fmt.Errorf("migrate.NewWithInstance() > %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s schema: %w", driver, err)
	}
	return nil
}
