package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDownload   ErrorType = "download"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypePublish    ErrorType = "publish"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Detail is the client-facing message: the message followed by the root cause text.
func (e *AppError) Detail() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, Detail(e.Cause))
}

// Detail renders any error as a client-facing message without the type prefix.
func Detail(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Detail()
	}
	return err.Error()
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDownloadError creates an error for a failed remote image fetch
func NewDownloadError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDownload,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeProcessing,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewPublishError creates an error for a rejected or failed upload to the hosting service
func NewPublishError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePublish,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Named failures of the crop pipeline.

func UnsupportedMediaType() *AppError {
	return NewValidationError("Unsupported file type. Upload PNG/JPG/JPEG/BMP/TIFF.", nil)
}

func EmptyUpload() *AppError {
	return NewValidationError("Empty file uploaded", nil)
}

func AmbiguousOrMissingSource() *AppError {
	return NewValidationError("Provide either 'image' file or 'image_url' form field", nil)
}

// RequestTooLarge is returned when the body exceeds limit bytes
func RequestTooLarge(limit int64) *AppError {
	err := NewValidationError(fmt.Sprintf("Request body exceeds %d bytes", limit), nil)
	err.StatusCode = http.StatusRequestEntityTooLarge
	return err
}

func NoOutputProduced() *AppError {
	return NewProcessingError("Processing failed to produce an output image", nil)
}

// PublishFailed wraps the upstream response text or transport error for the given host.
func PublishFailed(host string, cause error) *AppError {
	return NewPublishError(fmt.Sprintf("Failed to upload to %s", host), cause)
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// IsClientError reports whether the caller, not the service, caused err.
func IsClientError(err error) bool {
	return IsType(err, ErrorTypeValidation) || IsType(err, ErrorTypeDownload)
}

// IsFinal reports whether err already carries the response a flow should return.
// Publish failures are not final; flows prefix them with their own context.
func IsFinal(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Type != ErrorTypePublish
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
