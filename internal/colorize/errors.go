package colorize

import (
	"errors"
	"fmt"
	"net/http"
)

var errUnknownVariant = errors.New("unknown variant")

// ConfigurationError reports an unusable setup: an unknown variant or a model
// that failed to load. It is fatal; the process must not start serving.
type ConfigurationError struct {
	Variant string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: variant %q: %v", e.Variant, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) StatusCode() int { return http.StatusServiceUnavailable }

// ValidationError reports a request parameter outside its domain or an image
// that cannot be used. The request fails; the process keeps serving.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// InferenceError wraps a failure inside the model (reset or filter). It is
// never retried.
type InferenceError struct {
	Op  string
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference error: %s: %v", e.Op, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) StatusCode() int { return http.StatusInternalServerError }

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInferenceError reports whether err is or wraps an InferenceError.
func IsInferenceError(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}
