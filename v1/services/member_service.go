package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberService handles member-related operations
type MemberService struct {
	db *gorm.DB
}

// NewMemberService creates a new member service
func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// latestRequestColumn selects a column of the member's most recent request
const latestRequestColumn = `(SELECT r.%s FROM membership_requests r
	WHERE LOWER(TRIM(r.email)) = LOWER(TRIM(members.email))
	ORDER BY r.created_at DESC LIMIT 1)`

// GetAllMembersWithDetails lists every member with its account and latest request, newest first
func (s *MemberService) GetAllMembersWithDetails(ctx context.Context) ([]models.MemberDetail, error) {
	selectColumns := strings.Join([]string{
		"members.*",
		"youtube_accounts.youtube_email AS youtube_email",
		"youtube_accounts.nickname AS youtube_nickname",
		fmt.Sprintf(latestRequestColumn, "plan_type") + " AS plan_type",
		fmt.Sprintf(latestRequestColumn, "months") + " AS requested_months",
	}, ", ")

	details := make([]models.MemberDetail, 0)
	if err := s.db.WithContext(ctx).
		Table("members").
		Select(selectColumns).
		Joins("LEFT JOIN youtube_accounts ON youtube_accounts.id = members.youtube_account_id").
		Order("members.created_at DESC").
		Scan(&details).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "list members")
	}
	return details, nil
}

type memberFields struct {
	nickname      string
	email         string
	name          string
	depositStatus string
}

func validateMemberFields(nickname, email, name, depositStatus string) (*memberFields, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "nickname is required")
	}
	validEmail, err := validateEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if len(name) > models.MaxNameLength || len(nickname) > models.MaxNameLength {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "name is too long")
	}
	if strings.TrimSpace(depositStatus) == "" {
		depositStatus = models.DepositStatusPending
	}
	status, err := validateDepositStatus(depositStatus)
	if err != nil {
		return nil, err
	}
	return &memberFields{nickname: nickname, email: validEmail, name: name, depositStatus: status}, nil
}

func (s *MemberService) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Member{}).Where("LOWER(TRIM(email)) = ?", foldEmail(email))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateMember adds a member directly from the admin dashboard
func (s *MemberService) CreateMember(ctx context.Context, req *models.CreateMemberRequest) (*models.Member, error) {
	fields, err := validateMemberFields(req.Nickname, req.Email, req.Name, req.DepositStatus)
	if err != nil {
		return nil, err
	}

	taken, err := s.emailTaken(ctx, fields.email, "")
	if err != nil {
		return nil, apierrors.HandleDatabaseError(err, "check member email")
	}
	if taken {
		return nil, apierrors.ConflictError(apierrors.CodeDuplicate, "member with this email already exists")
	}

	member := models.Member{
		ID:               models.MemberIDPrefix + uuid.New().String(),
		Nickname:         fields.nickname,
		Email:            fields.email,
		Name:             fields.name,
		LastPaymentDate:  req.LastPaymentDate,
		PaymentDate:      req.PaymentDate,
		DepositStatus:    fields.depositStatus,
		YoutubeAccountID: optionalString(req.YoutubeAccountID),
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "create member")
	}

	slog.Info("Member created", "memberID", member.ID)
	return &member, nil
}

// UpdateMember overwrites every editable field of a member
func (s *MemberService) UpdateMember(ctx context.Context, id string, req *models.UpdateMemberRequest) error {
	fields, err := validateMemberFields(req.Nickname, req.Email, req.Name, req.DepositStatus)
	if err != nil {
		return err
	}

	taken, err := s.emailTaken(ctx, fields.email, id)
	if err != nil {
		return apierrors.HandleDatabaseError(err, "check member email")
	}
	if taken {
		return apierrors.ConflictError(apierrors.CodeDuplicate, "member with this email already exists")
	}

	updates := map[string]interface{}{
		"nickname":          fields.nickname,
		"email":             fields.email,
		"name":              fields.name,
		"last_payment_date": dateValue(req.LastPaymentDate),
		"payment_date":      dateValue(req.PaymentDate),
		"deposit_status":    fields.depositStatus,
		"updated_at":        time.Now().UTC(),
	}
	// An empty account id detaches the member from its account
	if req.YoutubeAccountID != nil {
		updates["youtube_account_id"] = optionalString(req.YoutubeAccountID)
	}

	result := s.db.WithContext(ctx).Model(&models.Member{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return apierrors.HandleDatabaseError(result.Error, "update member")
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFoundError("member")
	}
	return nil
}

// DeleteMember removes a member
func (s *MemberService) DeleteMember(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id).Error; err != nil {
		return apierrors.HandleDatabaseError(err, "delete member")
	}
	return nil
}

// BulkUpdateDepositStatus sets one deposit status on all matching members in a single statement.
// Unknown ids are ignored.
func (s *MemberService) BulkUpdateDepositStatus(ctx context.Context, memberIDs []string, depositStatus string) (*models.BulkUpdateDepositStatusResult, error) {
	ids := make([]string, 0, len(memberIDs))
	seen := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "memberIds must not be empty")
	}
	status, err := validateDepositStatus(depositStatus)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Member{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"deposit_status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, apierrors.HandleDatabaseError(result.Error, "bulk update deposit status")
	}

	updated := make([]models.Member, 0, result.RowsAffected)
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at DESC").Find(&updated).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "reload updated members")
	}

	slog.Info("Bulk deposit status update", "requested", len(ids), "updated", result.RowsAffected, "status", status)
	return &models.BulkUpdateDepositStatusResult{UpdatedCount: result.RowsAffected, UpdatedMembers: updated}, nil
}

func (s *MemberService) findByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).Where("LOWER(TRIM(email)) = ?", foldEmail(email)).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// CheckExpiry returns the renewal date of the member with the given email
func (s *MemberService) CheckExpiry(ctx context.Context, email string) (*models.ExpiryResponse, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "email is required")
	}

	member, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundErrorWithCode(apierrors.CodeNotFound, "member not found")
		}
		return nil, apierrors.HandleDatabaseError(err, "check expiry")
	}
	if member.PaymentDate == nil {
		return nil, apierrors.NotFoundErrorWithCode(apierrors.CodeNoExpiryData, "no expiry data")
	}

	return &models.ExpiryResponse{Email: member.Email, ExpiryDate: *member.PaymentDate}, nil
}

// VerifyMemberExists reports whether a member has the given email. Lookup failures count as absent.
func (s *MemberService) VerifyMemberExists(ctx context.Context, email string) bool {
	folded := foldEmail(email)
	if folded == "" {
		return false
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Member{}).
		Where("LOWER(TRIM(email)) = ?", folded).
		Count(&count).Error; err != nil {
		slog.Warn("Member lookup failed, treating as not found", "error", err)
		return false
	}
	return count > 0
}
