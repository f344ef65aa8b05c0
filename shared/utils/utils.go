package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
)

// maxRequestBodyBytes caps JSON request bodies
const maxRequestBodyBytes = 1 << 20

// ErrorResponse represents a standard error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the body of write endpoints that return no entity
type SuccessResponse struct {
	Success bool `json:"success"`
}

// RespondWithJSON sends a JSON response with the given status code and data
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// RespondWithError sends a JSON error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithErrorDetails sends a JSON error response with a details field
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message, details string) {
	RespondWithJSON(w, statusCode, ErrorResponse{Error: message, Details: details})
}

// RespondWithSuccess sends a JSON success response
func RespondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	RespondWithJSON(w, statusCode, data)
}

// RespondWithAPIError maps err onto its HTTP status. Causes of server-side failures are
// logged and only exposed when withDetails is set.
func RespondWithAPIError(w http.ResponseWriter, r *http.Request, err error, withDetails bool) {
	apiErr := apierrors.GetAPIError(err)
	if apiErr == nil {
		apiErr = apierrors.InternalErrorWithCause("Internal server error", err)
	}

	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.Error("Request failed",
			"path", r.URL.Path,
			"method", r.Method,
			"code", apiErr.Code,
			"error", err)
		if withDetails {
			details := apiErr.Details
			if details == "" && apiErr.InternalErr != nil {
				details = apiErr.InternalErr.Error()
			}
			RespondWithErrorDetails(w, apiErr.HTTPStatus, apiErr.Message, details)
			return
		}
	}

	RespondWithErrorDetails(w, apiErr.HTTPStatus, apiErr.Message, apiErr.Details)
}

// PanicRecoveryMiddleware provides panic recovery for HTTP handlers
func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Handler panicked", "error", err, "path", r.URL.Path)
				RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ParseJSONRequest parses a JSON request body into the target struct
func ParseJSONRequest(w http.ResponseWriter, r *http.Request, target interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(target); err != nil {
		if err == io.EOF {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	return nil
}

// GetEnvOrDefault returns the environment variable value or a default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntOrDefault returns the environment variable parsed as an int or a default
func GetEnvIntOrDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Invalid integer environment variable, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return parsed
}

// GetEnvDurationOrDefault returns the environment variable parsed as a duration or a default
func GetEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration environment variable, using default", "key", key, "value", value, "default", defaultValue)
		return defaultValue
	}
	return parsed
}

// GetEnvBoolOrDefault returns the environment variable parsed as a bool or a default
func GetEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
