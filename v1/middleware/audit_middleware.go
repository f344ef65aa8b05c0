package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const auditPublishTimeout = 2 * time.Second

// AuditPublisher forwards audit events to an external sink such as a Redis stream
type AuditPublisher interface {
	PublishAuditEvent(ctx context.Context, data map[string]interface{}) (string, error)
}

var (
	auditPublisherMu sync.RWMutex
	auditPublisher   AuditPublisher
)

// SetAuditPublisher installs the sink used by LogAudit. nil disables publishing.
func SetAuditPublisher(publisher AuditPublisher) {
	auditPublisherMu.Lock()
	defer auditPublisherMu.Unlock()
	auditPublisher = publisher
}

func currentAuditPublisher() AuditPublisher {
	auditPublisherMu.RLock()
	defer auditPublisherMu.RUnlock()
	return auditPublisher
}

// AuditAdminWrites logs every admin write operation with its outcome
func AuditAdminWrites(resource models.ResourceType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isWriteOperation(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			LogAudit(r, resource, chi.URLParam(r, "id"), ww.Status(), time.Since(start))
		})
	}
}

// LogAudit writes one audit line for an admin write operation
func LogAudit(r *http.Request, resource models.ResourceType, resourceID string, statusCode int, elapsed time.Duration) {
	eventAction := determineEventType(r.Method)
	if eventAction == "" {
		return
	}

	status := models.AuditStatusSuccess
	if statusCode >= http.StatusBadRequest {
		status = models.AuditStatusFailure
	}

	actor := "anonymous"
	if claims, ok := AdminClaimsFromContext(r.Context()); ok {
		actor = claims.Subject
	}

	requestID := chimiddleware.GetReqID(r.Context())
	slog.Info("Admin audit event",
		"eventType", "MANAGEMENT_EVENT",
		"eventAction", eventAction,
		"resource", resource,
		"resourceId", resourceID,
		"actor", actor,
		"status", status,
		"httpStatus", statusCode,
		"requestId", requestID,
		"durationMs", elapsed.Milliseconds())

	publisher := currentAuditPublisher()
	if publisher == nil {
		return
	}

	event := map[string]interface{}{
		"eventType":   "MANAGEMENT_EVENT",
		"eventAction": eventAction,
		"resource":    string(resource),
		"resourceId":  resourceID,
		"actor":       actor,
		"status":      string(status),
		"httpStatus":  statusCode,
		"requestId":   requestID,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	// Published off the request path; failures are only logged
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, auditPublishTimeout)
		defer cancel()
		if _, err := publisher.PublishAuditEvent(ctx, event); err != nil {
			slog.Warn("Failed to publish audit event", "error", err, "resource", resource, "eventAction", eventAction)
		}
	}(context.WithoutCancel(r.Context()))
}

// Helper functions
func isWriteOperation(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

func determineEventType(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	default:
		return ""
	}
}
