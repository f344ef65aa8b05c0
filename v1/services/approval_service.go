package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/pkg/monitoring"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApprovalService runs the pending -> approved/rejected state machine of membership requests
type ApprovalService struct {
	db             *gorm.DB
	pricePerMember decimal.Decimal
	location       *time.Location
	now            func() time.Time
}

// NewApprovalService creates a new approval service. location decides which calendar day
// counts as today for payment dates; nil means UTC.
func NewApprovalService(db *gorm.DB, pricePerMember decimal.Decimal, location *time.Location) *ApprovalService {
	if location == nil {
		location = time.UTC
	}
	return &ApprovalService{db: db, pricePerMember: pricePerMember, location: location, now: time.Now}
}

// TransitionRequest moves a request to approved or rejected. Repeating the current
// terminal status is a no-op; any other change of a decided request is a conflict.
// Approval also upserts the member and appends a revenue record, all in one transaction.
func (s *ApprovalService) TransitionRequest(ctx context.Context, id, target string) (*models.MembershipRequest, error) {
	status := models.Status(target)
	if !status.IsTerminal() {
		return nil, apierrors.ValidationError(apierrors.CodeInvalidStatus, "status must be approved or rejected")
	}

	var request models.MembershipRequest
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&request, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierrors.NotFoundError("request")
			}
			return fmt.Errorf("failed to load request: %w", err)
		}

		if request.Status == status {
			return nil
		}
		if request.Status.IsTerminal() {
			return apierrors.ConflictError(apierrors.CodeInvalidTransition,
				fmt.Sprintf("request is already %s and cannot become %s", request.Status, status))
		}

		now := s.now().UTC()
		if err := tx.Model(&models.MembershipRequest{}).Where("id = ?", request.ID).
			Updates(map[string]interface{}{"status": status, "updated_at": now}).Error; err != nil {
			return fmt.Errorf("failed to update request status: %w", err)
		}
		request.Status = status
		request.UpdatedAt = now

		if status == models.StatusApproved {
			member, err := s.upsertMember(tx, &request, now)
			if err != nil {
				return err
			}
			if err := s.recordRevenue(tx, member, &request, now); err != nil {
				return err
			}
		}

		changed = true
		return nil
	})
	if err != nil {
		monitoring.RecordBusinessEvent(ctx, "request_"+string(status), false)
		return nil, apierrors.HandleDatabaseError(err, "transition request")
	}

	if changed {
		monitoring.RecordBusinessEvent(ctx, "request_"+string(status), true)
		slog.Info("Membership request transitioned", "requestID", request.ID, "status", status)
	}
	return &request, nil
}

// upsertMember creates the member for an approved request or extends the existing one
func (s *ApprovalService) upsertMember(tx *gorm.DB, request *models.MembershipRequest, now time.Time) (*models.Member, error) {
	today := models.NewDate(now.In(s.location))
	months := request.MonthsOrDefault()

	var member models.Member
	err := tx.Where("LOWER(TRIM(email)) = ?", foldEmail(request.Email)).First(&member).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		paymentDate := today.AddMonths(months)
		member = models.Member{
			ID:              models.MemberIDPrefix + uuid.New().String(),
			Nickname:        nicknameFor(request),
			Email:           strings.TrimSpace(request.Email),
			LastPaymentDate: &today,
			PaymentDate:     &paymentDate,
			DepositStatus:   models.DepositStatusPaid,
		}
		if request.DepositorName != nil {
			member.Name = *request.DepositorName
		}
		if err := tx.Create(&member).Error; err != nil {
			return nil, fmt.Errorf("failed to create member: %w", err)
		}
		return &member, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up member: %w", err)
	}

	// Renewals extend from the later of today and the current expiry
	base := today
	if member.PaymentDate != nil && member.PaymentDate.After(today) {
		base = *member.PaymentDate
	}
	paymentDate := base.AddMonths(months)

	if err := tx.Model(&models.Member{}).Where("id = ?", member.ID).Updates(map[string]interface{}{
		"last_payment_date": today,
		"payment_date":      paymentDate,
		"deposit_status":    models.DepositStatusPaid,
		"updated_at":        now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to extend member: %w", err)
	}
	member.LastPaymentDate = &today
	member.PaymentDate = &paymentDate
	member.DepositStatus = models.DepositStatusPaid
	return &member, nil
}

func (s *ApprovalService) recordRevenue(tx *gorm.DB, member *models.Member, request *models.MembershipRequest, now time.Time) error {
	months := request.MonthsOrDefault()
	record := models.RevenueRecord{
		ID:         models.RevenueIDPrefix + uuid.New().String(),
		MemberID:   member.ID,
		RequestID:  &request.ID,
		Months:     months,
		Amount:     s.pricePerMember.Mul(decimal.NewFromInt(int64(months))),
		RecordedAt: now,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record revenue: %w", err)
	}
	return nil
}

// nicknameFor picks the kakao id, then the depositor name, then the email local part
func nicknameFor(request *models.MembershipRequest) string {
	if request.KakaoID != nil && *request.KakaoID != "" {
		return *request.KakaoID
	}
	if request.DepositorName != nil && *request.DepositorName != "" {
		return *request.DepositorName
	}
	local, _, _ := strings.Cut(strings.TrimSpace(request.Email), "@")
	return local
}
