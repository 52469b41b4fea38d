package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
)

func (db *DB) RunMigrations(ctx context.Context) error {
	logger := slog.With("component", "migrations", "path", db.migrationsPath)
	logger.Info("Starting database migrations")

	if err := db.createMigrationsTable(ctx); err != nil {
		logger.Error("Failed to create migrations table", "error", err)
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrationsFS := os.DirFS(db.migrationsPath)
	migrations, err := MigrationFiles(migrationsFS)
	if err != nil {
		logger.Error("Failed to get migration files", "error", err)
		return fmt.Errorf("failed to get migration files: %w", err)
	}

	logger.Info("Found migration files", "count", len(migrations))

	for _, migration := range migrations {
		if err := db.runMigration(ctx, migrationsFS, migration); err != nil {
			logger.Error("Failed to run migration", "migration", migration, "error", err)
			return fmt.Errorf("failed to run migration %s: %w", migration, err)
		}
	}

	logger.Info("All migrations completed successfully")
	return nil
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT NOW()
	)`

	_, err := db.ExecContext(ctx, query)
	return err
}

// MigrationFiles lists the .sql files at the root of fsys in lexical order
func MigrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}

	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrations = append(migrations, entry.Name())
		}
	}

	sort.Strings(migrations)
	return migrations, nil
}

func (db *DB) runMigration(ctx context.Context, fsys fs.FS, migrationName string) error {
	logger := slog.With(
		"component", "migrations",
		"operation", "run_migration",
		"migration", migrationName,
	)

	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", migrationName).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		logger.Debug("Migration already applied, skipping")
		return nil
	}

	content, err := fs.ReadFile(fsys, migrationName)
	if err != nil {
		return err
	}

	logger.Info("Running migration", "size_bytes", len(content))

	tx, err := db.BeginTxContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", migrationName); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Info("Migration completed successfully")
	return nil
}
