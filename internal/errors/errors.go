// Package errors provides comprehensive error handling for Paralens.
package errors

import (
	"errors"
	"strings"
)

// ============================================================
// Error Categories
// ============================================================

// Category defines the type of error for handling decisions.
type Category int

const (
	// CategoryTemporary errors are transient (network timeouts, upstream blips).
	// Nothing at this layer retries them; the category is informational.
	CategoryTemporary Category = iota

	// CategoryPermanent errors will not succeed if repeated (invalid input,
	// malformed responses).
	CategoryPermanent

	// CategoryUser errors are due to user configuration (missing API key,
	// dangling config reference).
	CategoryUser

	// CategorySystem errors are system-level (storage failures, permissions).
	CategorySystem
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTemporary:
		return "temporary"
	case CategoryPermanent:
		return "permanent"
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	default:
		return "unknown"
	}
}

// ============================================================
// AppError - Main Error Type
// ============================================================

// AppError is the main error type for all Paralens errors.
type AppError struct {
	// Code is a unique error code for programmatic handling
	Code string

	// Message is a user-friendly error message
	Message string

	// Category determines how the error should be handled
	Category Category

	// Inner is the underlying error
	Inner error

	// Context is additional debugging information
	Context map[string]any
}

// Error returns the error message.
func (e *AppError) Error() string {
	var sb strings.Builder

	if e.Code != "" {
		sb.WriteString("[")
		sb.WriteString(e.Code)
		sb.WriteString("] ")
	}

	sb.WriteString(e.Message)

	if e.Inner != nil {
		innerMsg := e.Inner.Error()
		if innerMsg != "" && innerMsg != e.Message {
			sb.WriteString(": ")
			sb.WriteString(innerMsg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Inner
}

// Is checks if the target error is contained in this error.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Inner, target)
}

// ============================================================
// Error Constructors
// ============================================================

// New creates a new AppError.
func New(code, message string, category Category) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
	}
}

// Wrap wraps an existing error with context.
func Wrap(err error, code, message string, category Category) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Category: category,
		Inner:    err,
	}
}

// Temporary creates a transient error.
func Temporary(code, message string) *AppError {
	return New(code, message, CategoryTemporary)
}

// Permanent creates a permanent error.
func Permanent(code, message string) *AppError {
	return New(code, message, CategoryPermanent)
}

// User creates a user configuration error.
func User(code, message string) *AppError {
	return New(code, message, CategoryUser)
}

// System creates a system-level error.
func System(code, message string) *AppError {
	return New(code, message, CategorySystem)
}

// ============================================================
// Builder Pattern for Fluent Error Construction
// ============================================================

// Builder provides fluent error construction.
type Builder struct {
	err *AppError
}

// NewBuilder starts building a new error.
func NewBuilder(code, message string) *Builder {
	return &Builder{
		err: &AppError{
			Code:     code,
			Message:  message,
			Category: CategoryTemporary,
			Context:  make(map[string]any),
		},
	}
}

// Temporary marks the error as transient.
func (b *Builder) Temporary() *Builder {
	b.err.Category = CategoryTemporary
	return b
}

// Permanent marks the error as permanent.
func (b *Builder) Permanent() *Builder {
	b.err.Category = CategoryPermanent
	return b
}

// User marks the error as a user configuration error.
func (b *Builder) User() *Builder {
	b.err.Category = CategoryUser
	return b
}

// System marks the error as a system error.
func (b *Builder) System() *Builder {
	b.err.Category = CategorySystem
	return b
}

// Wrap sets the underlying error.
func (b *Builder) Wrap(err error) *Builder {
	b.err.Inner = err
	return b
}

// WithContext adds context information.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.err.Context[key] = value
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *AppError {
	return b.err
}

// ============================================================
// Error Codes
// ============================================================

const (
	// Model errors
	CodeModelUnavailable     = "MODEL_UNAVAILABLE"
	CodeModelRateLimit       = "MODEL_RATE_LIMIT"
	CodeModelParseError      = "MODEL_PARSE_ERROR"
	CodeModelInvalidResponse = "MODEL_INVALID_RESPONSE"
	CodeModelEmptyResponse   = "MODEL_EMPTY_RESPONSE"

	// Network errors
	CodeNetworkUnavailable = "NETWORK_UNAVAILABLE"

	// Config errors
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeConfigNotFound = "CONFIG_NOT_FOUND"
	CodeAPIKeyMissing  = "API_KEY_MISSING"
	CodeTaskUnknown    = "TASK_UNKNOWN"
	CodeNotInitialized = "NOT_INITIALIZED"

	// Storage errors
	CodeStorageReadFailed  = "STORAGE_READ_FAILED"
	CodeStorageWriteFailed = "STORAGE_WRITE_FAILED"

	// Validation errors
	CodeInvalidInput = "INVALID_INPUT"
)

// ============================================================
// Helpers
// ============================================================

// GetCategory extracts the category from an error.
// Returns CategoryTemporary for non-AppError errors.
func GetCategory(err error) Category {
	if err == nil {
		return CategoryTemporary
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}

	return CategoryTemporary
}

// GetCode extracts the error code, or "" for non-AppError errors.
func GetCode(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return ""
}

// UserMessage formats the user-facing message of an error, without the
// internal code prefix or wrapped detail chain.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	return err.Error()
}
