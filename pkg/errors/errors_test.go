package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestAPIError_Error(t *testing.T) {
	t.Run("WithoutDetails", func(t *testing.T) {
		err := ValidationError(CodeValidation, "email is required")
		assert.Equal(t, "email is required (VALIDATION_ERROR)", err.Error())
		assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	})

	t.Run("WithDetails", func(t *testing.T) {
		err := InternalErrorWithCause("failed", fmt.Errorf("disk full"))
		err.Details = "boom"
		assert.Equal(t, "failed: boom (INTERNAL_ERROR)", err.Error())
	})
}

func TestGetAPIError_Wrapped(t *testing.T) {
	base := NotFoundError("member")
	wrapped := fmt.Errorf("lookup: %w", base)

	assert.Same(t, base, GetAPIError(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeNotFound))
	assert.False(t, IsType(wrapped, ErrorTypeValidation))
	assert.Nil(t, GetAPIError(fmt.Errorf("plain")))
}

func TestHandleDatabaseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   ErrorType
		wantStatus int
	}{
		{"RecordNotFound", gorm.ErrRecordNotFound, ErrorTypeNotFound, http.StatusNotFound},
		{"Deadline", fmt.Errorf("acquire conn: %w", context.DeadlineExceeded), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"Generic", fmt.Errorf("connection refused"), ErrorTypeDatabase, http.StatusInternalServerError},
		{"AlreadyAPIError", ConflictError(CodeInvalidTransition, "nope"), ErrorTypeConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := HandleDatabaseError(tt.err, "test")
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.wantStatus, apiErr.HTTPStatus)
		})
	}

	assert.Nil(t, HandleDatabaseError(nil, "test"))
}
