package middleware

import (
	"net/http"
	"strings"

	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/go-chi/cors"
)

const defaultAllowedOrigin = "http://localhost:5173"

// CORSConfig holds the cross-origin policy of the API
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig reads allowed origins from CORS_ALLOWED_ORIGINS (comma separated)
func DefaultCORSConfig() CORSConfig {
	var origins []string
	for _, origin := range strings.Split(utils.GetEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigin), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{defaultAllowedOrigin}
	}

	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Cache-Control"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// CORSMiddleware builds a go-chi/cors handler from config
func CORSMiddleware(config CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   config.AllowedMethods,
		AllowedHeaders:   config.AllowedHeaders,
		ExposedHeaders:   config.ExposedHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	})
}

// NewCORSMiddleware creates CORS middleware from the environment
func NewCORSMiddleware() func(http.Handler) http.Handler {
	return CORSMiddleware(DefaultCORSConfig())
}
