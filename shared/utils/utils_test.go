package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apierrors "github.com/WooyoungKwon/youtube-premium-sub001/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Run("Returns env var when set", func(t *testing.T) {
		t.Setenv("TEST_ENV_VAR_12345", "test-value")
		assert.Equal(t, "test-value", GetEnvOrDefault("TEST_ENV_VAR_12345", "default"))
	})

	t.Run("Returns default when empty string", func(t *testing.T) {
		t.Setenv("TEST_ENV_VAR_EMPTY_12345", "")
		assert.Equal(t, "default", GetEnvOrDefault("TEST_ENV_VAR_EMPTY_12345", "default"))
	})
}

func TestTypedEnvGetters(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_DURATION", "3s")
	t.Setenv("TEST_BOOL", "yes")

	assert.Equal(t, 42, GetEnvIntOrDefault("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvIntOrDefault("TEST_BAD_INT", 1))
	assert.Equal(t, 3*time.Second, GetEnvDurationOrDefault("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetEnvDurationOrDefault("TEST_DURATION_UNSET", time.Second))
	assert.True(t, GetEnvBoolOrDefault("TEST_BOOL", false))
	assert.True(t, GetEnvBoolOrDefault("TEST_BOOL_UNSET", true))
}

func TestRespondWithAPIError(t *testing.T) {
	t.Run("ValidationErrorKeepsMessage", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests", nil)

		RespondWithAPIError(rr, req, apierrors.ValidationError(apierrors.CodeValidation, "email is required"), false)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "email is required", body.Error)
		assert.Empty(t, body.Details)
	})

	t.Run("PlainErrorIsInternalWithoutDetails", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/list", nil)

		RespondWithAPIError(rr, req, fmt.Errorf("dial tcp: refused"), false)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "refused")
	})

	t.Run("InternalErrorWithDetails", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)

		RespondWithAPIError(rr, req, apierrors.DatabaseError("count members", fmt.Errorf("relation does not exist")), true)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "relation does not exist", body.Details)
	})
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	handler := PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Internal server error")
}

func TestParseJSONRequest(t *testing.T) {
	var target struct {
		Email string `json:"email"`
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`))
	require.NoError(t, ParseJSONRequest(rr, req, &target))
	assert.Equal(t, "a@b.co", target.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.Error(t, ParseJSONRequest(rr, req, &target))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	assert.Error(t, ParseJSONRequest(rr, req, &target))
}
