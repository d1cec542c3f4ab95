package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Application error codes
const (
	EINVALID      = "invalid"              // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized"         // Authentication required
	EFORBIDDEN    = "forbidden"            // Permission denied
	ENOTFOUND     = "not_found"            // Resource not found
	ECONFLICT     = "conflict"             // Resource conflict (e.g., duplicate)
	ETOOLARGE     = "too_large"            // Upload exceeds the tier ceiling
	ERATELIMIT    = "rate_limit"           // Rate limit exceeded
	ELIMIT        = "limit_reached"        // Daily usage limit reached
	EPRO          = "requires_pro"         // Feature requires an active pro subscription
	EUPSTREAM     = "upstream_unavailable" // AI provider unavailable after retries
	EPROCESSING   = "processing_failed"    // Image pipeline failure
	EINTERNAL     = "internal"             // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string         // Machine-readable error code
	Op      string         // Operation that failed (e.g., "usage.increment")
	Message string         // Human-readable message
	Err     error          // Underlying error
	Details map[string]any // Structured payload merged into the error body
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// For internal errors, return generic message
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message()
	}
	return "An internal error occurred. Please try again later."
}

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// ErrorDetails returns the structured details of the error, if any.
func ErrorDetails(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RateLimit creates a rate limit error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}

// LimitReached reports that the daily allowance for kind is used up.
func LimitReached(op string, kind UsageKind, current, max int, isPro bool) *Error {
	return &Error{
		Code:    ELIMIT,
		Op:      op,
		Message: fmt.Sprintf("Daily %s limit reached (%d/%d)", kind, current, max),
		Details: map[string]any{
			"limitType": string(kind),
			"current":   current,
			"max":       max,
			"isPro":     isPro,
		},
	}
}

// RequiresPro reports that the feature is gated behind a pro subscription.
func RequiresPro(op string) *Error {
	return &Error{
		Code:    EPRO,
		Op:      op,
		Message: "This feature requires a Pro subscription",
		Details: map[string]any{
			"requiresPro": true,
		},
	}
}

// PayloadTooLarge reports an upload above the free-tier ceiling.
func PayloadTooLarge(op string, size, limit int64) *Error {
	return &Error{
		Code:    ETOOLARGE,
		Op:      op,
		Message: fmt.Sprintf("File is too large. Maximum size is %s", FormatMegabytes(limit, 0)),
		Details: map[string]any{
			"limit":    FormatMegabytes(limit, 0),
			"fileSize": FormatMegabytes(size, 2),
		},
	}
}

// UpstreamUnavailable reports that the AI provider could not serve the request.
func UpstreamUnavailable(err error, op string) *Error {
	return &Error{
		Code:    EUPSTREAM,
		Op:      op,
		Message: "AI service is temporarily unavailable. Please try again later.",
		Err:     err,
	}
}

// ProcessingFailure reports an image pipeline failure without leaking its cause.
func ProcessingFailure(err error, op string) *Error {
	return &Error{
		Code:    EPROCESSING,
		Op:      op,
		Message: "Image processing failed",
		Err:     err,
	}
}

// FormatMegabytes renders a byte count as "25MB" or "30.00MB".
func FormatMegabytes(bytes int64, precision int) string {
	return fmt.Sprintf("%.*fMB", precision, float64(bytes)/(1024*1024))
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// Message joins the field messages in field order.
func (e *ValidationError) Message() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.Fields[f])
	}
	return strings.Join(msgs, "; ")
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}
