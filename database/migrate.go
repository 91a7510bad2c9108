package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Storage drivers understood by the migration commands
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// MigrationTarget names the database a migration command operates on
type MigrationTarget struct {
	Driver      string
	DatabaseURL string // postgres
	SQLitePath  string // sqlite
}

// migrationTargetFromEnv reads the target straight from the environment so
// migrations don't require DISCORD_TOKEN.
func migrationTargetFromEnv() MigrationTarget {
	target := MigrationTarget{
		Driver:      os.Getenv("STORAGE_DRIVER"),
		DatabaseURL: ConstructDatabaseURL(os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_NAME")),
		SQLitePath:  os.Getenv("DB_PATH"),
	}
	if target.Driver == "" {
		target.Driver = DriverSQLite
	}
	if target.SQLitePath == "" {
		target.SQLitePath = DefaultSQLitePath
	}
	return target
}

// MigrateUp runs all pending migrations against the environment's target
func MigrateUp() error {
	target := migrationTargetFromEnv()
	log.WithField("driver", target.Driver).Info("Running migrations")
	return Migrate(target)
}

// Migrate applies all pending migrations to target
func Migrate(target MigrationTarget) error {
	m, err := getMigrate(target)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No new migrations to apply")
	} else {
		version, _, _ := m.Version()
		log.Infof("Successfully migrated to version %d", version)
	}

	return nil
}

// MigrateDown rolls back the specified number of migrations
func MigrateDown(stepsStr string) error {
	steps, err := strconv.Atoi(stepsStr)
	if err != nil {
		return fmt.Errorf("invalid steps value: %w", err)
	}

	m, err := getMigrate(migrationTargetFromEnv())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Steps(-steps)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No migrations to rollback")
	} else {
		version, _, _ := m.Version()
		log.Infof("Successfully rolled back to version %d", version)
	}

	return nil
}

// MigrateStatus shows the current migration status
func MigrateStatus() error {
	m, err := getMigrate(migrationTargetFromEnv())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("No migrations have been applied yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	status := "clean"
	if dirty {
		status = "dirty"
	}

	log.Infof("Current migration version: %d (status: %s)", version, status)
	return nil
}

// RunMigrationsWithURL runs all pending postgres migrations against databaseURL
// This is useful for test environments where the URL is dynamically generated
func RunMigrationsWithURL(databaseURL string) error {
	return Migrate(MigrationTarget{Driver: DriverPostgres, DatabaseURL: databaseURL})
}

// RunSQLiteMigrations runs all pending sqlite migrations against the file at path
func RunSQLiteMigrations(path string) error {
	return Migrate(MigrationTarget{Driver: DriverSQLite, SQLitePath: path})
}

// getMigrate creates a migrate instance with its own connection to target.
// Closing the instance closes that connection.
func getMigrate(target MigrationTarget) (*migrate.Migrate, error) {
	var (
		driver migratedb.Driver
		err    error
	)

	switch target.Driver {
	case DriverPostgres:
		config, parseErr := pgxpool.ParseConfig(target.DatabaseURL)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse database URL: %w", parseErr)
		}
		db := stdlib.OpenDB(*config.ConnConfig)
		driver, err = postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}

	case DriverSQLite:
		db, openErr := sql.Open("sqlite", target.SQLitePath)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", openErr)
		}
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
		}

	case DriverMemory:
		return nil, errors.New("memory storage has no schema to migrate")

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", target.Driver)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+target.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, target.Driver, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
