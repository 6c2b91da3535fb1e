package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Argument errors
const (
	// ErrCodeInvalidArgument indicates a required argument was nil or out of range.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeInvalidConfig indicates a configuration value failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Execution errors
const (
	// ErrCodeExecution wraps a plain error raised while running an eager operation.
	ErrCodeExecution ErrorCode = "EXECUTION_FAILED"
	// ErrCodePoolClosed indicates work was submitted to a closed worker pool.
	ErrCodePoolClosed ErrorCode = "POOL_CLOSED"
	// ErrCodeConsumed indicates a pipeline handle was reused after being linked or consumed.
	ErrCodeConsumed ErrorCode = "STREAM_CONSUMED"
)
