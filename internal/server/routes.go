package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"floorplan-server/internal/floorplan"
	floorplanHandlers "floorplan-server/internal/floorplan/handlers"
	"floorplan-server/internal/middleware"
	serverHandlers "floorplan-server/internal/server/handlers"
	"floorplan-server/internal/shared/database"
	"floorplan-server/internal/shared/redis"
)

type Routes struct {
	db               *database.DB
	cache            *redis.Client
	floorplanService *floorplan.Service
	store            *floorplan.Store
	authMiddleware   *middleware.AuthMiddleware
	handlerOpts      floorplanHandlers.Options
	logger           *slog.Logger
}

func NewRoutes(
	db *database.DB,
	cache *redis.Client,
	store *floorplan.Store,
	floorplanService *floorplan.Service,
	authMiddleware *middleware.AuthMiddleware,
	handlerOpts floorplanHandlers.Options,
	logger *slog.Logger,
) *Routes {
	return &Routes{
		db:               db,
		cache:            cache,
		store:            store,
		floorplanService: floorplanService,
		authMiddleware:   authMiddleware,
		handlerOpts:      handlerOpts,
		logger:           logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	// Typed nils must not reach the health probes as non-nil interfaces
	var dbProbe, cacheProbe serverHandlers.Dependency
	if r.db != nil {
		dbProbe = r.db
	}
	if r.cache != nil {
		cacheProbe = r.cache
	}
	healthHandler := serverHandlers.NewHealthHandler(dbProbe, cacheProbe, r.store.Len)
	fp := floorplanHandlers.NewFloorplanHandler(r.floorplanService, r.handlerOpts)
	editor := func(h http.HandlerFunc) http.Handler {
		return r.authMiddleware.RequireEditor(h)
	}

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/maps", fp.ListMaps)
	mux.HandleFunc("GET /api/maps/{id}", fp.GetMap)
	mux.HandleFunc("GET /api/maps/{id}/spaces", fp.ListSpaces)
	mux.HandleFunc("GET /api/maps/{id}/hallways", fp.ListHallways)
	mux.HandleFunc("POST /api/maps/{id}/route", fp.Route)
	mux.HandleFunc("POST /api/maps/{id}/congestion", fp.Congestion)
	mux.HandleFunc("GET /api/maps/{id}/schedule", fp.GetSchedule)
	mux.Handle("GET /static/floorplans/", http.StripPrefix("/static/floorplans/", http.FileServer(http.Dir(r.handlerOpts.ImageDir))))

	// Editor endpoints
	mux.Handle("POST /api/maps", editor(fp.CreateMap))
	mux.Handle("DELETE /api/maps/{id}", editor(fp.DeleteMap))
	mux.Handle("POST /api/maps/{id}/spaces", editor(fp.CreateSpace))
	mux.Handle("DELETE /api/maps/{id}/spaces/{spaceId}", editor(fp.DeleteSpace))
	mux.Handle("POST /api/maps/{id}/hallways", editor(fp.CreateHallway))
	mux.Handle("DELETE /api/maps/{id}/hallways/{hallwayId}", editor(fp.DeleteHallway))
	mux.Handle("POST /api/maps/{id}/schedule", editor(fp.UploadSchedule))
	mux.Handle("POST /api/maps/{id}/floorplan", editor(fp.UploadFloorplan))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/metrics", "/api/maps", "/api/maps/{id}/route", "/api/maps/{id}/congestion"},
		"editor_endpoints", []string{"/api/maps", "/api/maps/{id}/spaces", "/api/maps/{id}/hallways", "/api/maps/{id}/schedule", "/api/maps/{id}/floorplan"},
	)

	return mux
}
