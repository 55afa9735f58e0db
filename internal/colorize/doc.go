// Package colorize holds the variant selection and per-request dispatch logic
// around a single shared colorization model. It is structured into small files
// by concern:
//
//   - variant.go: the Variant enum and parsing.
//   - model.go: Model, VideoColorizer and Backend interfaces.
//   - select.go: Select, the setup-time variant factory.
//   - validate.go: Validate, request normalization.
//   - shared.go: Shared, the owner of the model handle (exclusive access, reset).
//   - generate.go: Generate, one request end to end.
//   - errors.go: ConfigurationError, ValidationError, InferenceError.
//
// The model itself is opaque. Concrete backends live in package engine; the
// HTTP surface and admission control live in packages httpapi and service.
package colorize
