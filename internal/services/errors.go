package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Store and reconciler failures.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrProfileDataInvalid  = errors.New("account data invalid")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidEvent        = errors.New("invalid payment event")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrTopUpInProgress     = errors.New("top-up already in progress")
	ErrPaymentProvider     = errors.New("payment provider unavailable")
	ErrPaymentsDisabled    = errors.New("payments not configured")
)

// Error codes returned to clients in the errorCode field.
const (
	CodeAuthRequired          = "AUTH_REQUIRED"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeInvalidTool           = "INVALID_TOOL"
	CodeInvalidTier           = "INVALID_TIER"
	CodeProfileNotFound       = "PROFILE_NOT_FOUND"
	CodeProfileDataInvalid    = "PROFILE_DATA_INVALID"
	CodeDBFetch               = "DB_FETCH_ERROR"
	CodeDBUpdate              = "DB_UPDATE_ERROR"
	CodeUpgradeRequired       = "UPGRADE_REQUIRED"
	CodeInsufficientCredits   = "INSUFFICIENT_CREDITS"
	CodeProviderTimeoutPost   = "PROVIDER_TIMEOUT_ERROR_POST_DEDUCTION"
	CodeProviderErrorPost     = "PROVIDER_ERROR_POST_DEDUCTION"
	CodeEmptyOutputPost       = "EMPTY_OUTPUT_ERROR_POST_DEDUCTION"
	CodeGenerationUnavailable = "GENERATION_NOT_CONFIGURED"
	CodeInvalidPaymentEvent   = "INVALID_PAYMENT_EVENT"
	CodePaymentNotConfirmed   = "PAYMENT_NOT_CONFIRMED"
	CodePaymentProviderError  = "PAYMENT_PROVIDER_ERROR"
	CodePaymentsUnavailable   = "PAYMENTS_NOT_CONFIGURED"
	CodeInvalidSignature      = "INVALID_SIGNATURE"
	CodeTopUpInProgress       = "TOPUP_IN_PROGRESS"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// APIError is an error that knows how it is presented over HTTP.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates an APIError without details.
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// WithDetail returns a copy of e with key set in its details.
func (e *APIError) WithDetail(key string, value any) *APIError {
	out := *e
	out.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// AsAPIError converts any error into an APIError, using the catch-all code
// for errors that carry no HTTP mapping.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(http.StatusInternalServerError, CodeInternal, "An internal error occurred")
}
