// Package engine provides colorize.Backend implementations that drive an
// external colorization worker over HTTP, either already running (server)
// or spawned and supervised by this process (subprocess).
package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// dependencyUnavailableError signals a missing external dependency (worker
// binary, worker endpoint) so the HTTP layer can return 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

func (e dependencyUnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// ErrDependencyUnavailable constructs a dependency-unavailable error.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}

// WorkerError is a non-2xx answer from the worker.
type WorkerError struct {
	Op     string
	Status int
	Body   string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %s: http %d: %s", e.Op, e.Status, e.Body)
}
