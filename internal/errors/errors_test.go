package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Unauthenticated("no token presented")

	assert.True(t, stderrors.Is(err, ErrUnauthenticated))
	assert.False(t, stderrors.Is(err, ErrInvalidInput))
}

func TestError_WrapPreservesCause(t *testing.T) {
	cause := stderrors.New("badger: transaction conflict")
	err := Wrap(cause, CodeInvalidInput, "saving book failed")

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "saving book failed")
	assert.Contains(t, err.Error(), "transaction conflict")
}

func TestError_WithDetails(t *testing.T) {
	err := InvalidInput("title is required").WithDetails("title")

	assert.Equal(t, "title", err.Details)

	var domainErr *Error
	require.True(t, stderrors.As(err, &domainErr))
	assert.Equal(t, CodeInvalidInput, domainErr.Code)
}

func TestCode_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, CodeUnauthenticated.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, CodeBadCredentials.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, CodeInvalidInput.HTTPStatus())
	assert.Equal(t, http.StatusNotFound, CodeNotFound.HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, CodeRateLimited.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, CodeInternal.HTTPStatus())
}
