package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"floorplan-server/internal/shared/errors"
)

// ErrorResponse represents the JSON error response sent to clients
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Error logs an error and sends a JSON error response to the client
// This should be the only place where request errors are logged
func Error(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	errorType := errors.GetType(err)
	statusCode := StatusCode(errorType)

	logError(logger, r, err, errorType, statusCode)

	sendErrorResponse(w, errorType, clientMessage(err, errorType), statusCode)
}

// StatusCode maps error types to HTTP status codes
func StatusCode(errorType errors.ErrorType) int {
	switch errorType {
	case errors.ErrorTypeNotFound, errors.ErrorTypeUnreachable:
		return http.StatusNotFound
	case errors.ErrorTypeValidation, errors.ErrorTypeInvalidRange:
		return http.StatusBadRequest
	case errors.ErrorTypeNoSchedule:
		return http.StatusConflict
	case errors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrorTypeForbidden:
		return http.StatusForbidden
	case errors.ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case errors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrorTypeExternal:
		return http.StatusServiceUnavailable
	case errors.ErrorTypeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage hides wrapped internals from clients on server-side failures
func clientMessage(err error, errorType errors.ErrorType) string {
	if errorType == errors.ErrorTypeInternal {
		return "internal server error"
	}
	return err.Error()
}

func logError(logger *slog.Logger, r *http.Request, err error, errorType errors.ErrorType, statusCode int) {
	logCtx := logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"error_type", errorType,
		"status_code", statusCode,
	)

	switch errorType {
	case errors.ErrorTypeNotFound, errors.ErrorTypeUnreachable:
		logCtx.Debug("Resource not found", "error", err)
	case errors.ErrorTypeValidation, errors.ErrorTypeInvalidRange, errors.ErrorTypeMethodNotAllowed:
		logCtx.Debug("Validation error", "error", err)
	case errors.ErrorTypeNoSchedule:
		logCtx.Info("Schedule not loaded", "error", err)
	case errors.ErrorTypeUnauthorized, errors.ErrorTypeForbidden:
		// Auth errors might indicate security issues
		logCtx.Warn("Authorization error", "error", err)
	case errors.ErrorTypeRateLimited:
		logCtx.Warn("Rate limit exceeded", "error", err)
	case errors.ErrorTypeExternal:
		logCtx.Error("External service error", "error", err)
	case errors.ErrorTypeInternal:
		fallthrough
	default:
		logCtx.Error("Internal server error", "error", err)
	}
}

func sendErrorResponse(w http.ResponseWriter, errorType errors.ErrorType, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Status:  "error",
		Error:   string(errorType),
		Message: message,
		Code:    statusCode,
	}

	// The status code has already been sent
	_ = json.NewEncoder(w).Encode(response)
}

// Success sends a JSON success response to the client
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
