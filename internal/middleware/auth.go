package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"floorplan-server/internal/auth"
	"floorplan-server/internal/shared/config"
	"floorplan-server/internal/shared/errors"
	"floorplan-server/internal/shared/response"
)

type contextKey string

const (
	EditorContextKey contextKey = "editor"
	authCookieName              = "auth_token"
)

type AuthMiddleware struct {
	cfg config.AuthConfig
}

func NewAuthMiddleware(cfg config.AuthConfig) *AuthMiddleware {
	slog.Debug("Setting up auth middleware", "component", "auth_middleware", "enabled", cfg.Enabled)
	return &AuthMiddleware{cfg: cfg}
}

// JWTMiddleware accepts a bearer token or the auth_token cookie. With auth
// disabled every request passes through unauthenticated.
func (a *AuthMiddleware) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		logger := slog.With(
			"middleware", "jwt",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing JWT authentication")

		token := tokenFromRequest(r)
		if token == "" {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		claims, err := auth.ValidateJWT(a.cfg.JWTSecret, token)
		if err != nil {
			response.Error(w, r, logger, errors.Unauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), EditorContextKey, claims)
		logger.Debug("JWT authentication successful", "editor_id", claims.EditorID, "role", claims.Role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func GetEditorFromContext(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(EditorContextKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
