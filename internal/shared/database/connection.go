package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"floorplan-server/internal/shared/config"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
	migrationsPath string
}

type Tx struct {
	*sql.Tx
}

// Executor is satisfied by both *DB and *Tx so repositories can run inside or outside a transaction
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) BeginTxContext(ctx context.Context) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx}, nil
}

// Connect opens the Postgres pool described by cfg and verifies it with a ping.
// It returns nil, nil when the database is disabled so callers fall back to in-memory maps.
func Connect(ctx context.Context, cfg *config.Config) (*DB, error) {
	logger := slog.With("component", "database", "operation", "connect")

	if !cfg.Database.Enabled {
		logger.Info("Database disabled, floorplan maps will not be persisted")
		return nil, nil
	}

	logger.Info("Connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"user", cfg.Database.User,
		"database", cfg.Database.Name,
		"sslmode", cfg.Database.SSLMode,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		logger.Error("Failed to open database connection",
			"error", err, "host", cfg.Database.Host, "database", cfg.Database.Name)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		logger.Error("Failed to ping database",
			"error", err, "host", cfg.Database.Host, "database", cfg.Database.Name)
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr, "ping_error", err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully",
		"host", cfg.Database.Host, "database", cfg.Database.Name)

	return &DB{DB: sqlDB, migrationsPath: cfg.Database.MigrationsPath}, nil
}

// Check reports database health; a nil DB means persistence is disabled
func (db *DB) Check(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
