package persistence

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/persistence/migrations"
)

// RunMigrations applies every pending up migration embedded in the binary.
func RunMigrations(pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}
	return withMigrator(pool, logger, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// RollbackMigrations reverts the given number of migrations, or all of them
// when steps is not positive.
func RollbackMigrations(pool *pgxpool.Pool, steps int, logger *zap.Logger) error {
	if pool == nil {
		return errors.New("rollback requires a postgres connection")
	}
	return withMigrator(pool, logger, func(m *migrate.Migrate) error {
		if steps <= 0 {
			return m.Down()
		}
		return m.Steps(-steps)
	})
}

func withMigrator(pool *pgxpool.Pool, logger *zap.Logger, run func(*migrate.Migrate) error) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	instance, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	if err := run(instance); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := instance.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info("migrations applied", zap.String("version", "none"))
	case err != nil:
		return fmt.Errorf("migration version: %w", err)
	default:
		logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}
