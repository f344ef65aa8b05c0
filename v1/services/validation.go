package services

import (
	"fmt"
	"regexp"
	"strings"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/WooyoungKwon/youtube-premium-sub001/v1/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// foldEmail is the lookup form of an email address
func foldEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apierrors.ValidationError(apierrors.CodeValidation, "email is required")
	}
	if len(email) > models.MaxEmailLength || !emailPattern.MatchString(email) {
		return "", apierrors.ValidationError(apierrors.CodeValidation, "invalid email format")
	}
	return email, nil
}

func validateMonths(months *int) error {
	if months == nil {
		return nil
	}
	if *months < 1 || *months > models.MaxMonths {
		return apierrors.ValidationError(apierrors.CodeValidation,
			fmt.Sprintf("months must be between 1 and %d", models.MaxMonths))
	}
	return nil
}

func validateDepositStatus(status string) (string, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return "", apierrors.ValidationError(apierrors.CodeValidation, "depositStatus is required")
	}
	if len(status) > models.MaxDepositStatusLength {
		return "", apierrors.ValidationError(apierrors.CodeValidation,
			fmt.Sprintf("depositStatus must be at most %d characters", models.MaxDepositStatusLength))
	}
	return status, nil
}

// optionalString trims s and maps blank values to nil
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// dateValue unwraps a nullable date for map based updates
func dateValue(d *models.Date) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
