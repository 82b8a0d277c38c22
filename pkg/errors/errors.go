package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch and navigation errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents a value that could not be extracted from a page
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeTranslation represents text-generation failures
	ErrorTypeTranslation ErrorType = "translation"
	// ErrorTypeNotFound represents a missing record
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation represents malformed input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStore represents persistence errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// AppError represents an application error tagged with the component that raised it
type AppError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(errType ErrorType, component, message string, err error) *AppError {
	return &AppError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *AppError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *AppError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewTranslation creates a new translation error
func NewTranslation(component, message string, err error) *AppError {
	return New(ErrorTypeTranslation, component, message, err)
}

// NewNotFound creates a new not-found error
func NewNotFound(component, message string) *AppError {
	return New(ErrorTypeNotFound, component, message, nil)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *AppError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewStore creates a new store error
func NewStore(component, message string, err error) *AppError {
	return New(ErrorTypeStore, component, message, err)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *AppError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *AppError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AppError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Is reports whether err carries an AppError of the given type
func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// Message returns the user-facing message of err.
// Store and configuration causes stay in the logs.
func Message(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		if appErr.Err != nil && appErr.Type != ErrorTypeStore && appErr.Type != ErrorTypeConfiguration {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		return appErr.Message
	}
	return err.Error()
}
