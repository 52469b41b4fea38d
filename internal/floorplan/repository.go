package floorplan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"floorplan-server/internal/shared/database"
)

// Repository persists map snapshots as opaque blobs
type Repository interface {
	SaveMap(ctx context.Context, snapshot MapSnapshot) error
	DeleteMap(ctx context.Context, mapID int) error
	LoadMaps(ctx context.Context) ([]MapSnapshot, error)
}

type PostgresRepository struct {
	db     database.Executor
	logger *slog.Logger
}

func NewPostgresRepository(db database.Executor, logger *slog.Logger) *PostgresRepository {
	logger.Debug("Initializing floorplan repository")
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresRepository) SaveMap(ctx context.Context, snapshot MapSnapshot) error {
	logger := r.logger.With(
		"component", "floorplan_repository",
		"operation", "save_map",
		"map_id", snapshot.ID,
	)

	data, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("Failed to marshal map snapshot", "error", err)
		return fmt.Errorf("failed to marshal map %d: %w", snapshot.ID, err)
	}

	query := `
		INSERT INTO floorplan_maps (id, name, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, data = EXCLUDED.data, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, snapshot.ID, snapshot.Name, string(data)); err != nil {
		logger.Error("Failed to save map", "error", err)
		return fmt.Errorf("failed to save map %d: %w", snapshot.ID, err)
	}

	logger.Debug("Map saved",
		"spaces", len(snapshot.Spaces),
		"hallways", len(snapshot.Hallways),
		"size_bytes", len(data))
	return nil
}

func (r *PostgresRepository) DeleteMap(ctx context.Context, mapID int) error {
	logger := r.logger.With("component", "floorplan_repository", "operation", "delete_map", "map_id", mapID)

	if _, err := r.db.ExecContext(ctx, `DELETE FROM floorplan_maps WHERE id = $1`, mapID); err != nil {
		logger.Error("Failed to delete map", "error", err)
		return fmt.Errorf("failed to delete map %d: %w", mapID, err)
	}

	logger.Debug("Map deleted")
	return nil
}

func (r *PostgresRepository) LoadMaps(ctx context.Context) ([]MapSnapshot, error) {
	logger := r.logger.With("component", "floorplan_repository", "operation", "load_maps")

	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM floorplan_maps ORDER BY id`)
	if err != nil {
		logger.Error("Failed to query maps", "error", err)
		return nil, fmt.Errorf("failed to query maps: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var snapshots []MapSnapshot
	for rows.Next() {
		var (
			id   int
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			logger.Error("Failed to scan map row", "error", err)
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}

		var snapshot MapSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			// One corrupt blob should not keep the remaining maps offline
			logger.Warn("Skipping map with unreadable data", "map_id", id, "error", err)
			continue
		}
		snapshot.ID = id
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating maps: %w", err)
	}

	logger.Info("Maps loaded", "count", len(snapshots))
	return snapshots, nil
}
