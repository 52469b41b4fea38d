package middleware

import (
	"log/slog"
	"net/http"

	"floorplan-server/internal/shared/config"

	"github.com/rs/cors"
)

type CORSMiddleware struct {
	*cors.Cors
}

func NewCORS(cfg config.FrontendConfig) *CORSMiddleware {
	logger := slog.With("component", "cors", "operation", "setup")

	allowedOrigins := []string{cfg.URL}
	allowedMethods := []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}

	corsConfig := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		Debug:            cfg.CORSDebug,
	})

	logger.Info("CORS middleware configured",
		"allowed_origins", allowedOrigins,
		"allowed_methods", allowedMethods,
		"debug_mode", cfg.CORSDebug,
	)

	return &CORSMiddleware{corsConfig}
}

func (c *CORSMiddleware) Middleware(h http.Handler) http.Handler {
	return c.Cors.Handler(h)
}
