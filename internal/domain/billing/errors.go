package billing

import (
	"errors"
	"fmt"
)

// Configuration errors: fail fast, before any network call
var (
	ErrIntegrationDisabled = errors.New("billing: invoicing integration is disabled")
	ErrMissingCredentials  = errors.New("billing: provider company id or API token missing")
)

// Provider transport errors
var (
	ErrProviderUnavailable     = errors.New("billing: provider temporarily unavailable")
	ErrProviderInvalidResponse = errors.New("billing: invalid provider response")
)

// Orchestration errors
var (
	ErrUploadInFlight = errors.New("billing: an upload for this contract is already in flight")
	ErrImportInFlight = errors.New("billing: a client import is already in flight")
)

// ProviderAPIError is a non-2xx response from the provider. The upstream
// status code is preserved so callers can inspect provider error shapes.
type ProviderAPIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("billing: provider returned %d: %s", e.StatusCode, e.Message)
}

// NewProviderAPIError creates a ProviderAPIError
func NewProviderAPIError(statusCode int, message string) *ProviderAPIError {
	return &ProviderAPIError{StatusCode: statusCode, Message: message}
}
