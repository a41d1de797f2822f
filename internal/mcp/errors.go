// Package mcp implements the Model Context Protocol (MCP) server for devseek.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/devseek/devseek/internal/engine"
	dverrors "github.com/devseek/devseek/internal/errors"
)

// Custom MCP error codes for devseek.
const (
	// ErrCodeTrendingUnavailable indicates no trending sources are configured.
	ErrCodeTrendingUnavailable = -32001

	// ErrCodeUpstreamFailed indicates an upstream source could not be reached.
	ErrCodeUpstreamFailed = -32002

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeRateLimited indicates an upstream source throttled the request.
	ErrCodeRateLimited = -32004

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
// It maps known error types to appropriate MCP error codes and messages.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	// Check for DevseekError first
	var dvErr *dverrors.DevseekError
	if errors.As(err, &dvErr) {
		return mapDevseekError(dvErr)
	}

	switch {
	case errors.Is(err, engine.ErrEmptyQuery):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Query cannot be empty.",
		}
	case errors.Is(err, engine.ErrTrendingUnavailable):
		return &MCPError{
			Code:    ErrCodeTrendingUnavailable,
			Message: "No trending sources are configured.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown methods/tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapDevseekError converts a DevseekError to an MCPError.
func mapDevseekError(de *dverrors.DevseekError) *MCPError {
	// Build message with suggestion if available
	message := de.Message
	if de.Suggestion != "" {
		message = fmt.Sprintf("%s %s", de.Message, de.Suggestion)
	}

	switch de.Category {
	case dverrors.CategoryValidation:
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: message,
		}
	case dverrors.CategoryNetwork:
		switch de.Code {
		case dverrors.ErrCodeNetworkTimeout:
			return &MCPError{
				Code:    ErrCodeTimeout,
				Message: message,
			}
		case dverrors.ErrCodeRateLimited:
			return &MCPError{
				Code:    ErrCodeRateLimited,
				Message: message,
			}
		default:
			return &MCPError{
				Code:    ErrCodeUpstreamFailed,
				Message: message,
			}
		}
	default: // CategoryConfig, CategoryIO, CategoryInternal and unknown
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: message,
		}
	}
}
