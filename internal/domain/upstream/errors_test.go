package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIError_ParsesNotionBody(t *testing.T) {
	body := []byte(`{"object":"error","status":429,"code":"rate_limited","message":"Rate limited","request_id":"abc"}`)
	err := NewAPIError(SourceNotion, http.StatusTooManyRequests, body)

	assert.Equal(t, CodeRateLimited, err.Code)
	assert.Equal(t, "Rate limited", err.Message)
	assert.Equal(t, "abc", err.RequestID)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.True(t, err.IsRetryable())
	assert.Equal(t, CategoryRateLimit, err.Category())
	assert.Contains(t, err.Error(), "notion 429")
}

func TestNewAPIError_ParsesPostgrestBody(t *testing.T) {
	body := []byte(`{"code":"42P01","details":null,"hint":null,"message":"relation \"public.orders\" does not exist"}`)
	err := NewAPIError(SourceSupabase, http.StatusNotFound, body)

	assert.Equal(t, "42P01", err.Code)
	assert.True(t, errors.Is(err, ErrResourceNotFound))
	assert.False(t, err.IsRetryable())
	assert.Equal(t, CategoryNotFound, err.Category())
}

func TestNewAPIError_PlainBody(t *testing.T) {
	err := NewAPIError(SourceSupabase, http.StatusBadGateway, []byte("upstream connect error\n"))
	assert.Empty(t, err.Code)
	assert.Equal(t, "upstream connect error", err.Message)
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.True(t, err.IsRetryable())
	assert.Equal(t, CategoryServer, err.Category())
}

func TestAPIError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("fetch orders: %w", NewAPIError(SourceNotion, http.StatusUnauthorized, []byte(`{"code":"unauthorized","message":"API token is invalid."}`)))
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrRateLimited))

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, CategoryAuthentication, apiErr.Category())
}

func TestAPIError_Categories(t *testing.T) {
	tests := []struct {
		status int
		code   string
		want   ErrorCategory
	}{
		{http.StatusBadRequest, CodeValidationError, CategoryValidation},
		{http.StatusForbidden, CodeRestrictedResource, CategoryAuthentication},
		{http.StatusServiceUnavailable, CodeServiceUnavailable, CategoryServer},
		{http.StatusConflict, CodeConflict, CategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := &APIError{Source: SourceNotion, Code: tt.code, StatusCode: tt.status}
			assert.Equal(t, tt.want, err.Category())
		})
	}
}
