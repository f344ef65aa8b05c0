package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/auth"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/middleware"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	cacheControlRequestList  = "private, max-age=30, stale-while-revalidate=60"
	cacheControlRequestStats = "private, max-age=30"
	cacheControlAdminStats   = "public, max-age=10"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports whether an optional dependency such as Redis is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config wires the collaborators of the V1 handler
type Config struct {
	Authenticator  *auth.Authenticator
	Notifier       services.RequestNotifier
	PricePerMember decimal.Decimal
	// Location decides the calendar day of approvals; nil means UTC
	Location       *time.Location
	Pinger         Pinger
	// AuditStream is checked by /health when set; failures degrade but never fail it
	AuditStream    HealthChecker
}

// V1Handler handles all V1 API routes
type V1Handler struct {
	requestService *services.RequestService
	memberService  *services.MemberService
	statsService   *services.StatsService
	vendorService  *services.VendorService
	accountService *services.AccountService
	authenticator  *auth.Authenticator
	pinger         Pinger
	auditStream    HealthChecker
}

// NewV1Handler creates a new V1 handler
func NewV1Handler(db *gorm.DB, config Config) *V1Handler {
	workflow := services.NewApprovalService(db, config.PricePerMember, config.Location)
	return &V1Handler{
		requestService: services.NewRequestService(db, config.Notifier, workflow),
		memberService:  services.NewMemberService(db),
		statsService:   services.NewStatsService(db, config.PricePerMember),
		vendorService:  services.NewVendorService(db),
		accountService: services.NewAccountService(db),
		authenticator:  config.Authenticator,
		pinger:         config.Pinger,
		auditStream:    config.AuditStream,
	}
}

// SetupV1Routes configures all V1 API routes
func (h *V1Handler) SetupV1Routes(r chi.Router) {
	r.Get("/health", h.health)

	// Public routes
	r.Post("/requests", h.createRequest)
	r.Post("/verify-member", h.verifyMember)
	r.Get("/members/check-expiry", h.checkExpiry)
	r.Post("/vendor/login", h.vendorLogin)
	r.Post("/admin/auth", h.adminAuth)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.authenticator))

		r.Get("/admin/list", h.listRequests)
		r.Get("/admin/request-stats", h.requestStats)
		r.Get("/admin/stats", h.adminStats)

		r.Route("/admin/requests/{id}", func(r chi.Router) {
			r.Use(middleware.AuditAdminWrites(models.ResourceTypeRequests))
			r.Patch("/", h.updateRequestStatus)
			r.Put("/", h.updateRequestMetadata)
			r.Delete("/", h.deleteRequest)
		})

		r.Route("/admin/members", func(r chi.Router) {
			r.Use(middleware.AuditAdminWrites(models.ResourceTypeMembers))
			r.Get("/", h.listMembers)
			r.Post("/", h.createMember)
			r.Post("/bulk-update", h.bulkUpdateDepositStatus)
			r.Put("/{id}", h.updateMember)
			r.Delete("/{id}", h.deleteMember)
		})

		r.Route("/admin/youtube-accounts", func(r chi.Router) {
			r.Use(middleware.AuditAdminWrites(models.ResourceTypeYoutubeAccounts))
			r.Get("/", h.listAccounts)
			r.Post("/", h.createAccount)
			r.Put("/{id}", h.updateAccount)
			r.Delete("/{id}", h.deleteAccount)
		})
	})
}

func (h *V1Handler) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "database": "ok"}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			slog.Error("Health check failed", "error", err)
			body["status"] = "unavailable"
			body["database"] = "unavailable"
			utils.RespondWithJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}

	if h.auditStream != nil {
		body["redis"] = "ok"
		if err := h.auditStream.HealthCheck(r.Context()); err != nil {
			slog.Warn("Redis health check failed", "error", err)
			body["status"] = "degraded"
			body["redis"] = "unavailable"
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, body)
}

// decodeBody parses a JSON body and answers 400 on failure
func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := utils.ParseJSONRequest(w, r, target); err != nil {
		utils.RespondWithErrorDetails(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func (h *V1Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMembershipRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.requestService.AddRequest(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, created)
}

func (h *V1Handler) verifyMember(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := utils.ParseJSONRequest(w, r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		utils.RespondWithJSON(w, http.StatusBadRequest, models.VerifyMemberResponse{Valid: false, Error: "email is required"})
		return
	}

	valid := h.memberService.VerifyMemberExists(r.Context(), req.Email)
	utils.RespondWithJSON(w, http.StatusOK, models.VerifyMemberResponse{Valid: valid})
}

func (h *V1Handler) checkExpiry(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	expiry, err := h.memberService.CheckExpiry(r.Context(), email)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, expiry)
}

func (h *V1Handler) vendorLogin(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	vendor, err := h.vendorService.VendorLogin(r.Context(), req.Email)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, vendor)
}

func (h *V1Handler) adminAuth(w http.ResponseWriter, r *http.Request) {
	var req models.AdminAuthRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.authenticator.Verify(req.Password); err != nil {
		monitoring.RecordBusinessEvent(r.Context(), "admin_login", false)
		middleware.LogAudit(r, models.ResourceTypeAdminSession, "", http.StatusUnauthorized, 0)
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, expiresAt, err := h.authenticator.IssueToken()
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}

	monitoring.RecordBusinessEvent(r.Context(), "admin_login", true)
	middleware.LogAudit(r, models.ResourceTypeAdminSession, "", http.StatusOK, 0)
	utils.RespondWithJSON(w, http.StatusOK, models.AdminAuthResponse{
		Success:   true,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// queryInt parses an integer query parameter; malformed values count as absent
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return value
}

func (h *V1Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, filter, err := h.requestService.GetAllRequests(r.Context(), models.RequestFilter{
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
		Status: query.Get("status"),
		Search: query.Get("search"),
	})
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}

	w.Header().Set("Cache-Control", cacheControlRequestList)
	utils.RespondWithJSON(w, http.StatusOK, models.RequestListResponse{
		Requests:   result.Requests,
		Total:      result.Total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(result.Total) / float64(filter.Limit))),
	})
}

func (h *V1Handler) requestStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.requestService.GetRequestStats(r.Context())
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	w.Header().Set("Cache-Control", cacheControlRequestStats)
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *V1Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetAdminStats(r.Context())
	if err != nil {
		utils.RespondWithAPIError(w, r, err, true)
		return
	}
	w.Header().Set("Cache-Control", cacheControlAdminStats)
	utils.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *V1Handler) updateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRequestStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.requestService.UpdateRequestStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *V1Handler) updateRequestMetadata(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRequestMetadataRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.requestService.UpdateRequestMetadata(r.Context(), chi.URLParam(r, "id"), &req); err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.SuccessResponse{Success: true})
}

func (h *V1Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.requestService.DeleteRequest(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.SuccessResponse{Success: true})
}

func (h *V1Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.GetAllMembersWithDetails(r.Context())
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *V1Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var req models.CreateMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	member, err := h.memberService.CreateMember(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, member)
}

func (h *V1Handler) updateMember(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.memberService.UpdateMember(r.Context(), chi.URLParam(r, "id"), &req); err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.SuccessResponse{Success: true})
}

func (h *V1Handler) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := h.memberService.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.SuccessResponse{Success: true})
}

func (h *V1Handler) bulkUpdateDepositStatus(w http.ResponseWriter, r *http.Request) {
	var req models.BulkUpdateDepositStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.memberService.BulkUpdateDepositStatus(r.Context(), req.MemberIDs, req.DepositStatus)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *V1Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
}

func (h *V1Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req models.YoutubeAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), &req)
	if err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, account)
}

func (h *V1Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.YoutubeAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.accountService.UpdateAccount(r.Context(), chi.URLParam(r, "id"), &req); err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.SuccessResponse{Success: true})
}

func (h *V1Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accountService.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.RespondWithAPIError(w, r, err, false)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.SuccessResponse{Success: true})
}
