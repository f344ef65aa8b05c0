package services

import (
	"context"
	"errors"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
	"gorm.io/gorm"
)

// VendorService looks up marketplace vendors
type VendorService struct {
	db *gorm.DB
}

// NewVendorService creates a new vendor service
func NewVendorService(db *gorm.DB) *VendorService {
	return &VendorService{db: db}
}

// VendorLogin returns the profile of an active vendor
func (s *VendorService) VendorLogin(ctx context.Context, email string) (*models.Vendor, error) {
	folded := foldEmail(email)
	if folded == "" {
		return nil, apierrors.ValidationError(apierrors.CodeValidation, "email is required")
	}

	var vendor models.Vendor
	if err := s.db.WithContext(ctx).Where("LOWER(TRIM(email)) = ?", folded).First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NotFoundError("vendor")
		}
		return nil, apierrors.HandleDatabaseError(err, "vendor login")
	}
	if !vendor.IsActive {
		return nil, apierrors.ForbiddenError("vendor account is inactive")
	}
	return &vendor, nil
}

