package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorCodes(t *testing.T) {
	cases := []struct {
		err  *APIError
		typ  ErrorType
		code int
	}{
		{NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{NewDatabaseError("db", nil), ErrorTypeDatabase, http.StatusInternalServerError},
		{NewCacheError("cache", nil), ErrorTypeCache, http.StatusInternalServerError},
		{NewDocumentStoreError("docs", nil), ErrorTypeDocumentStore, http.StatusInternalServerError},
		{NewInconsistencyError("drift", nil), ErrorTypeInconsistent, http.StatusInternalServerError},
		{NewAuthError("who", nil), ErrorTypeAuth, http.StatusUnauthorized},
		{NewAuthorizationError("no", nil), ErrorTypeAuthorize, http.StatusForbidden},
		{NewUnavailableError("down", nil), ErrorTypeUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			assert.Equal(t, tc.typ, tc.err.Type)
			assert.Equal(t, tc.code, tc.err.Code)
		})
	}
}

func TestIsNotFoundThroughWrapping(t *testing.T) {
	base := NewNotFoundError("sensor not found", nil)
	wrapped := fmt.Errorf("get data: %w", base)

	assert.True(t, IsNotFound(base))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestUnwrapKeepsStoreError(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewCacheError("failed to read telemetry", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPartialWriteDetails(t *testing.T) {
	err := NewPartialWriteError("document insert failed", []string{"relational_insert"}, nil)

	apiErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypePartialWrite, apiErr.Type)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"relational_insert"}, details["completed_steps"])
}
