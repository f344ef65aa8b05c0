package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestNotifier is told about every accepted membership request
type RequestNotifier interface {
	NotifyNewRequest(request models.MembershipRequest)
}

// RequestService handles membership request operations
type RequestService struct {
	db       *gorm.DB
	notifier RequestNotifier
	workflow *ApprovalService
}

// NewRequestService creates a new request service. notifier may be nil.
func NewRequestService(db *gorm.DB, notifier RequestNotifier, workflow *ApprovalService) *RequestService {
	return &RequestService{db: db, notifier: notifier, workflow: workflow}
}

// AddRequest validates and stores a new pending request, then notifies the admin
func (s *RequestService) AddRequest(ctx context.Context, req *models.CreateMembershipRequest) (*models.MembershipRequest, error) {
	email, err := validateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "phone is required")
	}
	if len(phone) > models.MaxPhoneLength {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "invalid phone number")
	}
	if err := validateMonths(req.Months); err != nil {
		return nil, err
	}

	request := models.MembershipRequest{
		ID:            models.RequestIDPrefix + uuid.New().String(),
		Email:         email,
		Phone:         &phone,
		KakaoID:       optionalString(req.KakaoID),
		DepositorName: optionalString(req.DepositorName),
		Months:        req.Months,
		ReferralEmail: optionalString(req.ReferralEmail),
		PlanType:      optionalString(req.PlanType),
		Status:        models.StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		monitoring.RecordBusinessEvent(ctx, "request_submitted", false)
		return nil, apierrors.HandleDatabaseError(err, "create request")
	}
	monitoring.RecordBusinessEvent(ctx, "request_submitted", true)
	slog.Info("Membership request created", "requestID", request.ID)

	if s.notifier != nil {
		s.notifier.NotifyNewRequest(request)
	}

	return &request, nil
}

// NormalizeRequestFilter clamps pagination and validates the status filter
func NormalizeRequestFilter(filter models.RequestFilter) (models.RequestFilter, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = models.DefaultPageLimit
	}
	if filter.Limit > models.MaxPageLimit {
		filter.Limit = models.MaxPageLimit
	}
	if filter.Page > models.MaxPage {
		filter.Page = models.MaxPage
	}

	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	switch filter.Status {
	case "", models.StatusFilterAll:
		filter.Status = models.StatusFilterAll
	case string(models.StatusPending), string(models.StatusApproved), string(models.StatusRejected):
	default:
		return filter, apierrors.ValidationError(apierrors.CodeInvalidStatus,
			"status must be one of all, pending, approved, rejected")
	}

	filter.Search = strings.TrimSpace(filter.Search)
	return filter, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// filteredRequests applies the status and search filter to a fresh query
func (s *RequestService) filteredRequests(ctx context.Context, filter models.RequestFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.MembershipRequest{})
	if filter.Status != models.StatusFilterAll {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		// Search text is matched literally; % and _ are escaped
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		query = query.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(depositor_name) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	return query
}

// GetAllRequests returns one page of requests, newest first, with the filtered total
func (s *RequestService) GetAllRequests(ctx context.Context, filter models.RequestFilter) (*models.RequestListResult, models.RequestFilter, error) {
	filter, err := NormalizeRequestFilter(filter)
	if err != nil {
		return nil, filter, err
	}

	var total int64
	if err := s.filteredRequests(ctx, filter).Count(&total).Error; err != nil {
		return nil, filter, apierrors.HandleDatabaseError(err, "count requests")
	}

	requests := make([]models.MembershipRequest, 0, filter.Limit)
	offset := (filter.Page - 1) * filter.Limit
	if err := s.filteredRequests(ctx, filter).
		Order("created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, filter, apierrors.HandleDatabaseError(err, "list requests")
	}

	return &models.RequestListResult{Requests: requests, Total: total}, filter, nil
}

// UpdateRequestStatus moves a request through the approval workflow
func (s *RequestService) UpdateRequestStatus(ctx context.Context, id, status string) (*models.MembershipRequest, error) {
	return s.workflow.TransitionRequest(ctx, id, status)
}

// UpdateRequestMetadata applies a partial update of months and depositor name
func (s *RequestService) UpdateRequestMetadata(ctx context.Context, id string, req *models.UpdateRequestMetadataRequest) error {
	if err := validateMonths(req.Months); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Months != nil {
		updates["months"] = *req.Months
	}
	if req.DepositorName != nil {
		updates["depositor_name"] = optionalString(req.DepositorName)
	}
	if len(updates) == 0 {
		return apierrors.ValidationError(apierrors.CodeValidation, "no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&models.MembershipRequest{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return apierrors.HandleDatabaseError(result.Error, "update request")
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFoundError("request")
	}
	return nil
}

// DeleteRequest hard-deletes a request. Deleting an unknown id succeeds.
func (s *RequestService) DeleteRequest(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.MembershipRequest{}, "id = ?", id).Error; err != nil {
		return apierrors.HandleDatabaseError(err, "delete request")
	}
	return nil
}

// GetRequestStats counts requests per status in one query
func (s *RequestService) GetRequestStats(ctx context.Context) (*models.RequestStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.MembershipRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "request stats")
	}

	stats := &models.RequestStats{}
	for _, row := range rows {
		switch models.Status(row.Status) {
		case models.StatusPending:
			stats.Pending = row.Count
		case models.StatusApproved:
			stats.Approved = row.Count
		case models.StatusRejected:
			stats.Rejected = row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}
