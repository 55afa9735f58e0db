package service

import (
	"errors"
	"net/http"
)

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ variant string }

func (e tooBusyError) Error() string { return "too busy: " + e.variant }

func (e tooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// notReadyError is returned while the model is loading, failed, or closed.
type notReadyError struct{ state State }

func (e notReadyError) Error() string { return "model not ready: " + string(e.state) }

func (e notReadyError) StatusCode() int { return http.StatusServiceUnavailable }

// IsNotReady reports whether err indicates the model cannot serve yet.
func IsNotReady(err error) bool {
	var nr notReadyError
	return errors.As(err, &nr)
}

// ErrAlreadySetup is returned by a second Setup call.
var ErrAlreadySetup = errors.New("service already set up")
