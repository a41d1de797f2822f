package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devseek/devseek/internal/engine"
	dverrors "github.com/devseek/devseek/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	// Given: nil error
	var err error = nil

	// When: mapping the error
	result := MapError(err)

	// Then: returns nil
	assert.Nil(t, result)
}

func TestMapError_EmptyQuery(t *testing.T) {
	// Given: the engine's empty-query error
	err := engine.ErrEmptyQuery

	// When: mapping the error
	result := MapError(err)

	// Then: invalid params
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInvalidParams, result.Code)
	assert.Contains(t, result.Message, "empty")
}

func TestMapError_TrendingUnavailable(t *testing.T) {
	// Given: the engine's trending-unavailable error
	err := engine.ErrTrendingUnavailable

	// When: mapping the error
	result := MapError(err)

	// Then: the custom trending code
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTrendingUnavailable, result.Code)
	assert.Contains(t, result.Message, "trending")
}

func TestMapError_DeadlineExceeded(t *testing.T) {
	// Given: deadline exceeded error
	err := context.DeadlineExceeded

	// When: mapping the error
	result := MapError(err)

	// Then: returns timeout error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
	assert.Contains(t, result.Message, "timed out")
}

func TestMapError_Canceled(t *testing.T) {
	// Given: context canceled error
	err := context.Canceled

	// When: mapping the error
	result := MapError(err)

	// Then: returns timeout error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
	assert.Contains(t, result.Message, "canceled")
}

func TestMapError_UnknownError(t *testing.T) {
	// Given: unknown error
	err := errors.New("some unknown error")

	// When: mapping the error
	result := MapError(err)

	// Then: returns internal error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInternalError, result.Code)
	assert.Contains(t, result.Message, "Internal server error")
}

func TestMapError_WrappedError(t *testing.T) {
	// Given: wrapped trending-unavailable error
	err := fmt.Errorf("request failed: %w", engine.ErrTrendingUnavailable)

	// When: mapping the error
	result := MapError(err)

	// Then: correctly identifies the wrapped error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTrendingUnavailable, result.Code)
}

func TestMCPError_Error(t *testing.T) {
	// Given: an MCP error
	err := &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: "missing required field",
	}

	// When: calling Error()
	msg := err.Error()

	// Then: returns formatted message
	assert.Contains(t, msg, "MCP error")
	assert.Contains(t, msg, "-32602")
	assert.Contains(t, msg, "missing required field")
}

func TestNewInvalidParamsError(t *testing.T) {
	// Given: a custom message
	msg := "query parameter is required"

	// When: creating invalid params error
	err := NewInvalidParamsError(msg)

	// Then: returns error with custom message
	assert.Equal(t, ErrCodeInvalidParams, err.Code)
	assert.Equal(t, msg, err.Message)
}

func TestNewMethodNotFoundError(t *testing.T) {
	// Given: a tool name
	name := "unknown_tool"

	// When: creating method not found error
	err := NewMethodNotFoundError(name)

	// Then: returns error with tool name
	assert.Equal(t, ErrCodeMethodNotFound, err.Code)
	assert.Contains(t, err.Message, name)
}

// MCP error codes for DevseekError categories

func TestMapError_DevseekError_Validation(t *testing.T) {
	// Given: a DevseekError with validation code
	err := dverrors.New(dverrors.ErrCodeQueryTooShort, "query must be at least 3 characters", nil)

	// When: mapping the error
	result := MapError(err)

	// Then: returns invalid params error with the message
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInvalidParams, result.Code)
	assert.Contains(t, result.Message, "3 characters")
}

func TestMapError_DevseekError_NetworkTimeout(t *testing.T) {
	// Given: a DevseekError with network timeout
	err := dverrors.New(dverrors.ErrCodeNetworkTimeout, "connection timed out", nil)

	// When: mapping the error
	result := MapError(err)

	// Then: returns timeout error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
}

func TestMapError_DevseekError_RateLimited(t *testing.T) {
	// Given: a DevseekError for an upstream rate limit
	err := dverrors.New(dverrors.ErrCodeRateLimited, "code host throttled the request", nil)

	// When: mapping the error
	result := MapError(err)

	// Then: returns the rate-limit code
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeRateLimited, result.Code)
}

func TestMapError_DevseekError_NetworkOther(t *testing.T) {
	// Given: a generic upstream failure
	err := dverrors.New(dverrors.ErrCodeUpstreamStatus, "code host returned 502", nil)

	// When: mapping the error
	result := MapError(err)

	// Then: returns the upstream-failed code
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeUpstreamFailed, result.Code)
}

func TestMapError_DevseekError_WithSuggestion(t *testing.T) {
	// Given: a DevseekError with suggestion
	err := dverrors.New(dverrors.ErrCodeNetworkUnavailable, "code host unreachable", nil).
		WithSuggestion("Check your network connection.")

	// When: mapping the error
	result := MapError(err)

	// Then: message includes suggestion
	require.NotNil(t, result)
	assert.Contains(t, result.Message, "code host unreachable")
	assert.Contains(t, result.Message, "Check your network")
}

func TestMapError_DevseekError_Internal(t *testing.T) {
	// Given: an internal DevseekError
	err := dverrors.New(dverrors.ErrCodeInternal, "unexpected error", nil)

	// When: mapping the error
	result := MapError(err)

	// Then: returns internal error
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeInternalError, result.Code)
}

func TestMapError_WrappedDevseekError(t *testing.T) {
	// Given: a wrapped DevseekError
	dvErr := dverrors.New(dverrors.ErrCodeNetworkTimeout, "timeout", nil)
	err := fmt.Errorf("operation failed: %w", dvErr)

	// When: mapping the error
	result := MapError(err)

	// Then: correctly identifies the wrapped DevseekError
	require.NotNil(t, result)
	assert.Equal(t, ErrCodeTimeout, result.Code)
}
