package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations embedded in the binary.
// Already up to date is not an error. The URL must use the pgx5 scheme,
// which MigrateURL derives from a plain postgres connection string.
func Migrate(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("db: load migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("db: create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: run migrations: %w", err)
	}
	return nil
}

// MigrateURL rewrites a postgres:// connection string into the pgx5://
// form golang-migrate expects for its pgx/v5 driver.
func MigrateURL(databaseURL string) string {
	const prefix = "postgres://"
	if len(databaseURL) > len(prefix) && databaseURL[:len(prefix)] == prefix {
		return "pgx5://" + databaseURL[len(prefix):]
	}
	const prefixLong = "postgresql://"
	if len(databaseURL) > len(prefixLong) && databaseURL[:len(prefixLong)] == prefixLong {
		return "pgx5://" + databaseURL[len(prefixLong):]
	}
	return databaseURL
}
