package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"floorplan-server/internal/shared/response"
)

// Dependency is a health probe for one backing service; nil means disabled
type Dependency interface {
	Check(ctx context.Context) error
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	Maps      int    `json:"maps"`
}

type HealthHandler struct {
	db       Dependency
	cache    Dependency
	mapCount func() int
}

func NewHealthHandler(db, cache Dependency, mapCount func() int) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, mapCount: mapCount}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  probe(ctx, logger, "database", h.db),
		Cache:     probe(ctx, logger, "cache", h.cache),
	}
	if h.mapCount != nil {
		resp.Maps = h.mapCount()
	}

	response.Success(w, http.StatusOK, resp)
}

func probe(ctx context.Context, logger *slog.Logger, name string, dep Dependency) string {
	if dep == nil {
		return "disabled"
	}
	if err := dep.Check(ctx); err != nil {
		logger.Warn("Health probe failed", "dependency", name, "error", err)
		return "disconnected"
	}
	return "connected"
}
