// Package errors classifies failures of calls to the BNPL provider API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Category groups provider failures by how the caller should react
type Category string

const (
	CategoryNetwork     Category = "network"     // request never reached the provider
	CategoryProvider    Category = "provider"    // 5xx
	CategoryRejected    Category = "rejected"    // 4xx, resending the same request fails again
	CategoryUnavailable Category = "unavailable" // circuit breaker open
)

// ProviderError is a failed provider call
type ProviderError struct {
	Code            string
	Message         string
	ProviderMessage string // message from the provider's error body, if any
	StatusCode      int
	Category        Category
	Details         map[string]interface{}
}

func (e *ProviderError) Error() string {
	if e.ProviderMessage != "" {
		return fmt.Sprintf("%s: %s (provider: %s)", e.Code, e.Message, e.ProviderMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retriable reports whether sending the same request later may succeed
func (e *ProviderError) Retriable() bool {
	return e.Category != CategoryRejected
}

// WithDetail attaches a key/value pair and returns e
func (e *ProviderError) WithDetail(key string, value interface{}) *ProviderError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func NewProviderError(code, message string, category Category) *ProviderError {
	return &ProviderError{Code: code, Message: message, Category: category}
}

// FromStatus classifies an HTTP error status returned by the provider
func FromStatus(status int) *ProviderError {
	var pe *ProviderError
	if status >= http.StatusInternalServerError {
		pe = NewProviderError("GATEWAY_ERROR", "Payment provider error", CategoryProvider)
	} else {
		pe = NewProviderError("REQUEST_ERROR", "Invalid request to payment provider", CategoryRejected)
	}
	pe.StatusCode = status
	return pe
}

// AsProviderError extracts a ProviderError from an error chain
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetriable is true only for provider failures that may succeed on a later attempt
func IsRetriable(err error) bool {
	pe, ok := AsProviderError(err)
	return ok && pe.Retriable()
}

// ValidationError is a malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
