package contract

import "errors"

var (
	// ErrUsage marks caller mistakes: start while a data request is
	// outstanding, or resume with an absent/mismatched request id.
	// Re-sending the same call will not help.
	ErrUsage = errors.New("usage error")

	// ErrDispatch marks a failed agent invocation. Session state is left
	// untouched, so retrying the identical call is safe.
	ErrDispatch = errors.New("agent dispatch failed")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
)
