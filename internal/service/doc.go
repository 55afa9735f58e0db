// Package service wires the colorization core to the outside world: one-time
// setup, admission control in front of the shared model, wire encoding of
// images, status reporting, metrics and lifecycle events.
//
//   - config.go: Config and package defaults; New applies defaults.
//   - service.go: Service type, Setup, Ready, Close.
//   - admission.go: bounded FIFO queue in front of the model.
//   - generate.go: Generate, the per-request entry point.
//   - status.go: Status and Meta reporting.
//   - metrics.go: Prometheus collectors.
//   - errors.go: error types and helpers (IsTooBusy, IsNotReady).
package service
