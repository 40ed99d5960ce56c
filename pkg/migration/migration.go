package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Config holds migration configuration. When Source is set, migrations are
// read from it (rooted at MigrationsPath, "." by default); otherwise
// MigrationsPath is a directory on disk.
type Config struct {
	Source         fs.FS
	MigrationsPath string
	DatabaseURL    string
	Logger         *zap.Logger
}

// Runner handles database migrations
type Runner struct {
	config *Config
	logger *zap.Logger
}

// NewRunner creates a new migration runner
func NewRunner(config *Config) *Runner {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		config: config,
		logger: logger.With(zap.String("component", "migration")),
	}
}

// Up runs all pending migrations
func (r *Runner) Up() error {
	r.logger.Info("running database migrations")

	m, closeFn, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer closeFn()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("no new migrations to run")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("migrations completed")
	return nil
}

// Down rolls back the last migration
func (r *Runner) Down() error {
	r.logger.Info("rolling back last migration")

	m, closeFn, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer closeFn()

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	r.logger.Info("migration rolled back")
	return nil
}

// Force sets the migration version without running migrations.
// Use this carefully to fix broken migration states.
func (r *Runner) Force(version int) error {
	r.logger.Warn("forcing migration version", zap.Int("version", version))

	m, closeFn, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer closeFn()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}

	r.logger.Info("migration version forced", zap.Int("version", version))
	return nil
}

// Version returns the current migration version
func (r *Runner) Version() (uint, bool, error) {
	m, closeFn, err := r.getMigrate()
	if err != nil {
		return 0, false, fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}

	return version, dirty, nil
}

// getMigrate creates a migrate instance and the func that releases it
// together with its database handle.
func (r *Runner) getMigrate() (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", r.config.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	var m *migrate.Migrate
	if r.config.Source != nil {
		root := r.config.MigrationsPath
		if root == "" {
			root = "."
		}
		src, srcErr := iofs.New(r.config.Source, root)
		if srcErr != nil {
			driver.Close()
			db.Close()
			return nil, nil, fmt.Errorf("failed to open migration source: %w", srcErr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", driver)
	} else {
		m, err = migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s", r.config.MigrationsPath),
			"postgres",
			driver,
		)
	}
	if err != nil {
		driver.Close()
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, func() {
		m.Close()
		db.Close()
	}, nil
}

// AutoMigrate runs pending migrations from source on application start.
func AutoMigrate(dbURL string, source fs.FS, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := NewRunner(&Config{
		Source:      source,
		DatabaseURL: dbURL,
		Logger:      logger,
	})

	version, dirty, err := runner.Version()
	if err != nil {
		logger.Error("failed to get migration version", zap.Error(err))
		return err
	}

	if dirty {
		logger.Warn("database is in dirty state", zap.Uint("version", version))
		return fmt.Errorf("database in dirty state at version %d", version)
	}

	logger.Info("current migration version", zap.Uint("version", version))

	if err := runner.Up(); err != nil {
		return err
	}

	newVersion, _, err := runner.Version()
	if err != nil {
		return err
	}

	logger.Info("migration completed", zap.Uint("from_version", version), zap.Uint("to_version", newVersion))
	return nil
}
