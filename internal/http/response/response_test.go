package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/librisapp/libris-server/internal/errors"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, map[string]string{"hello": "world"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"data":{"hello":"world"},"success":true}`, rec.Body.String())
}

func TestNull(t *testing.T) {
	rec := httptest.NewRecorder()

	Null(rec, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":null,"success":true}`, rec.Body.String())
}

func TestHandleError_DomainError(t *testing.T) {
	rec := httptest.NewRecorder()

	err := domainerrors.InvalidInput("title is required").WithDetails("title")
	HandleError(rec, err, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"success": false,
		"error": {"code": "BAD_USER_INPUT", "message": "title is required", "details": "title"}
	}`, rec.Body.String())
}

func TestHandleError_WrappedDomainError(t *testing.T) {
	rec := httptest.NewRecorder()

	err := domainerrors.Unauthenticated("not authenticated")
	HandleError(rec, err, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleError_UnknownError(t *testing.T) {
	rec := httptest.NewRecorder()

	HandleError(rec, errors.New("disk on fire"), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal detail never leaks into the payload.
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()

	TooManyRequests(rec, "slow down", nil)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}
