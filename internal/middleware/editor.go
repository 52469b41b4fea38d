package middleware

import (
	"log/slog"
	"net/http"

	"floorplan-server/internal/auth"
	"floorplan-server/internal/shared/errors"
	"floorplan-server/internal/shared/response"
)

func (a *AuthMiddleware) editorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		logger := slog.With(
			"middleware", "editor",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		claims := GetEditorFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		if claims.Role != auth.RoleEditor {
			logger.Warn("Non-editor attempted to modify a map",
				"editor_id", claims.EditorID,
				"role", claims.Role)
			response.Error(w, r, logger, errors.Forbidden("editor access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireEditor gates map mutations behind a valid editor token
func (a *AuthMiddleware) RequireEditor(next http.Handler) http.Handler {
	return a.JWTMiddleware(a.editorMiddleware(next))
}
