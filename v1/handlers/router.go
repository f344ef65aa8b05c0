package handlers

import (
	"net/http"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// DefaultRequestTimeout bounds a single request including time waiting for a pool slot
const DefaultRequestTimeout = 15 * time.Second

// NewRouter assembles the chi router with the shared middleware stack
func NewRouter(h *V1Handler, requestTimeout time.Duration) http.Handler {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(utils.PanicRecoveryMiddleware)
	r.Use(middleware.NewCORSMiddleware())
	r.Use(monitoring.HTTPMetricsMiddleware)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Handle("/metrics", monitoring.Handler())
	h.SetupV1Routes(r)

	return r
}
