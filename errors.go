package checkpoint

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a ConfigStore when the requested checkpoint
// name is absent. Match with errors.Is.
var ErrNotFound = errors.New("checkpoint not found")

// ConfigError represents a malformed or self-contradictory checkpoint
// configuration: a bad webhook URL, an invalid notify condition, an unknown
// docs site name, or a validation entry with no resolvable target. These
// indicate a caller mistake, so they are raised eagerly when the
// configuration is built and never deferred to run time.
type ConfigError struct {
	Cause   string
	Wrapped error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid checkpoint config: %s", e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// NewConfigError creates a ConfigError with a formatted cause.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Cause: fmt.Sprintf(format, args...)}
}

// EngineError indicates the validation engine failed to execute a single
// validation entry (bad batch request, unknown expectation suite). It is
// recorded against that entry in the CheckpointResult and does not abort
// the remaining validations in the run.
type EngineError struct {
	SuiteName string
	Cause     string
	Wrapped   error
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.SuiteName != "" {
		return fmt.Sprintf("validation engine failed for suite %q: %s", e.SuiteName, e.Cause)
	}
	return fmt.Sprintf("validation engine failed: %s", e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *EngineError) Unwrap() error {
	return e.Wrapped
}

// DeliveryError indicates an action backend (notification sender, result
// store, docs publisher) failed. It is recorded against the failing
// validation/action pair and does not abort the batch.
type DeliveryError struct {
	ActionName string
	Kind       ActionKind
	Cause      string
	Wrapped    error
}

// Error implements the error interface
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("action %q (%s) failed: %s", e.ActionName, e.Kind, e.Cause)
}

// Unwrap implements the error unwrapping interface for errors.Is and errors.As
func (e *DeliveryError) Unwrap() error {
	return e.Wrapped
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
