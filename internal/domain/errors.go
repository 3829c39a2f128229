package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Order Errors (ORDER_*)
	ErrorCodeOrderNotFound      ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeCreditMemoNotFound ErrorCode = "CREDIT_MEMO_NOT_FOUND"

	// Provider Errors (PROVIDER_*)
	ErrorCodeMissingProviderReference ErrorCode = "MISSING_PROVIDER_REFERENCE"
	ErrorCodeProviderCallFailed       ErrorCode = "PROVIDER_CALL_FAILED"

	// Capture Errors (CAPTURE_*)
	ErrorCodeCaptureIneligible  ErrorCode = "CAPTURE_INELIGIBLE"
	ErrorCodeQuantityUnresolved ErrorCode = "QUANTITY_UNRESOLVED"

	// Post-processing Errors
	ErrorCodeInvoicingFailed    ErrorCode = "INVOICING_FAILED"
	ErrorCodeFinalizationFailed ErrorCode = "FINALIZATION_FAILED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches sentinel domain errors by code
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeOrderNotFound ||
		code == ErrorCodeCreditMemoNotFound ||
		code == ErrorCodeMissingProviderReference
}

var (
	ErrOrderNotFound            = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrCreditMemoNotFound       = NewDomainError(ErrorCodeCreditMemoNotFound, "credit memo not found")
	ErrMissingProviderReference = NewDomainError(ErrorCodeMissingProviderReference, "order has no provider order reference")
	ErrProviderCallFailed       = NewDomainError(ErrorCodeProviderCallFailed, "payment provider call failed")
	ErrCaptureIneligible        = NewDomainError(ErrorCodeCaptureIneligible, "order cannot be captured")
	ErrQuantityUnresolved       = NewDomainError(ErrorCodeQuantityUnresolved, "item has no shipped, invoiced or ordered quantity")
	ErrInvoicingFailed          = NewDomainError(ErrorCodeInvoicingFailed, "post-capture invoicing failed")
	ErrFinalizationFailed       = NewDomainError(ErrorCodeFinalizationFailed, "checkout success finalization failed")
)
