// Package errors provides the unified error type used across poolstream.
//
// Every failure a caller can observe from the construction layer, the worker
// pool or a value-returning eager operation is an *AppError carrying a
// machine-readable code. Foreign errors are wrapped, never replaced, so
// errors.Is and errors.As keep reaching the original cause.
package errors
