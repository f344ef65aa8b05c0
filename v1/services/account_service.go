package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountService manages the pool of shared YouTube accounts
type AccountService struct {
	db *gorm.DB
}

// NewAccountService creates a new account service
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

func validateAccount(req *models.YoutubeAccountRequest) (string, error) {
	email, err := validateEmail(req.YoutubeEmail)
	if err != nil {
		return "", err
	}
	if req.RemainingCredit < 0 {
		return "", apierrors.ValidationError(apierrors.CodeValidation, "remainingCredit must not be negative")
	}
	return email, nil
}

func (s *AccountService) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.YoutubeAccount{}).Where("LOWER(TRIM(youtube_email)) = ?", foldEmail(email))
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ListAccounts returns every account, newest first
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.YoutubeAccount, error) {
	accounts := make([]models.YoutubeAccount, 0)
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "list accounts")
	}
	return accounts, nil
}

// CreateAccount adds an account to the pool
func (s *AccountService) CreateAccount(ctx context.Context, req *models.YoutubeAccountRequest) (*models.YoutubeAccount, error) {
	email, err := validateAccount(req)
	if err != nil {
		return nil, err
	}
	taken, err := s.emailTaken(ctx, email, "")
	if err != nil {
		return nil, apierrors.HandleDatabaseError(err, "check account email")
	}
	if taken {
		return nil, apierrors.ConflictError(apierrors.CodeDuplicate, "account with this email already exists")
	}

	account := models.YoutubeAccount{
		ID:              models.AccountIDPrefix + uuid.New().String(),
		YoutubeEmail:    email,
		Nickname:        strings.TrimSpace(req.Nickname),
		RenewalDate:     req.RenewalDate,
		RemainingCredit: req.RemainingCredit,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "create account")
	}
	return &account, nil
}

// UpdateAccount overwrites every field of an account
func (s *AccountService) UpdateAccount(ctx context.Context, id string, req *models.YoutubeAccountRequest) error {
	email, err := validateAccount(req)
	if err != nil {
		return err
	}
	taken, err := s.emailTaken(ctx, email, id)
	if err != nil {
		return apierrors.HandleDatabaseError(err, "check account email")
	}
	if taken {
		return apierrors.ConflictError(apierrors.CodeDuplicate, "account with this email already exists")
	}

	result := s.db.WithContext(ctx).Model(&models.YoutubeAccount{}).Where("id = ?", id).Updates(map[string]interface{}{
		"youtube_email":    email,
		"nickname":         strings.TrimSpace(req.Nickname),
		"renewal_date":     dateValue(req.RenewalDate),
		"remaining_credit": req.RemainingCredit,
		"updated_at":       time.Now().UTC(),
	})
	if result.Error != nil {
		return apierrors.HandleDatabaseError(result.Error, "update account")
	}
	if result.RowsAffected == 0 {
		return apierrors.NotFoundError("youtube account")
	}
	return nil
}

// DeleteAccount removes an account and detaches the members assigned to it
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	var detached int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Member{}).Where("youtube_account_id = ?", id).
			Updates(map[string]interface{}{"youtube_account_id": nil, "updated_at": time.Now().UTC()})
		if result.Error != nil {
			return fmt.Errorf("failed to detach members: %w", result.Error)
		}
		detached = result.RowsAffected

		deleted := tx.Delete(&models.YoutubeAccount{}, "id = ?", id)
		if deleted.Error != nil {
			return fmt.Errorf("failed to delete account: %w", deleted.Error)
		}
		if deleted.RowsAffected == 0 {
			return apierrors.NotFoundError("youtube account")
		}
		return nil
	})
	if err != nil {
		return apierrors.HandleDatabaseError(err, "delete account")
	}

	slog.Info("YouTube account deleted", "accountID", id, "detachedMembers", detached)
	return nil
}
