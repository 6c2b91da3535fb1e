package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
// It lets sentinel values such as ErrConsumed match freshly built errors.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t == e || (t.Code == e.Code && t.Message == "")
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Sentinels for errors.Is checks against any error of the same code.
var (
	ErrInvalidArgument = &AppError{Code: ErrCodeInvalidArgument}
	ErrInvalidConfig   = &AppError{Code: ErrCodeInvalidConfig}
	ErrExecution       = &AppError{Code: ErrCodeExecution}
	ErrPoolClosed      = &AppError{Code: ErrCodePoolClosed}
	ErrConsumed        = &AppError{Code: ErrCodeConsumed}
)

// --- Common Error Constructors ---

// NilArgument creates an AppError for a required argument that was nil.
func NilArgument(name string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s must not be nil", name),
		Details: map[string]any{"argument": name},
	}
}

// InvalidArgument creates an AppError for an argument with an unusable value.
func InvalidArgument(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid %s: %s", name, reason),
		Details: map[string]any{"argument": name},
	}
}

// InvalidConfig creates an AppError for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// PoolClosed creates an AppError for work submitted to a stopped pool.
func PoolClosed(pool string) *AppError {
	return &AppError{
		Code: ErrCodePoolClosed, Message: fmt.Sprintf("worker pool %s is closed", pool),
		Details: map[string]any{"pool": pool},
	}
}

// Consumed creates an AppError for a pipeline handle used more than once.
func Consumed() *AppError {
	return &AppError{
		Code:    ErrCodeConsumed,
		Message: "stream has already been operated upon or closed",
	}
}

// Execution wraps a plain error raised by an eager operation.
func Execution(cause error) *AppError {
	return &AppError{
		Code: ErrCodeExecution, Message: "eager operation failed", Cause: cause,
	}
}

// Normalize maps any error onto the AppError channel.
// nil stays nil, an *AppError anywhere in the chain is returned as is,
// everything else is wrapped with Execution.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return Execution(err)
}

// As is a re-export of the standard library's errors.As.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is is a re-export of the standard library's errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// Join is a re-export of the standard library's errors.Join.
func Join(errs ...error) error { return stderrors.Join(errs...) }
