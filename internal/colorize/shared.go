package colorize

import (
	"errors"
	"sync/atomic"
)

// ErrClosed is returned when the shared model has been released.
var ErrClosed = errors.New("model closed")

// Shared owns the single model handle of the process. All use of the handle
// goes through WithExclusiveAccess.
type Shared struct {
	variant Variant
	model   Model
	// slot has capacity 1: holding it is holding the model. Blocked senders
	// are served in arrival order.
	slot   chan struct{}
	closed bool // guarded by slot

	waiting     atomic.Int64
	inflight    atomic.Int64
	generations atomic.Uint64
	failures    atomic.Uint64
	resets      atomic.Uint64
}

// Stats is a point-in-time copy of the Shared counters.
type Stats struct {
	Waiting     int
	Inflight    int
	Generations uint64
	Failures    uint64
	Resets      uint64
}

// NewShared takes ownership of model.
func NewShared(v Variant, model Model) *Shared {
	return &Shared{variant: v, model: model, slot: make(chan struct{}, 1)}
}

// Variant returns the variant the model was selected for.
func (s *Shared) Variant() Variant { return s.variant }

// WithExclusiveAccess runs fn with the model while no other caller can
// observe or mutate it. Callers block, without timeout, until the model is free.
func (s *Shared) WithExclusiveAccess(fn func(Model) error) error {
	s.waiting.Add(1)
	s.slot <- struct{}{}
	s.waiting.Add(-1)
	defer func() { <-s.slot }()
	if s.closed {
		return ErrClosed
	}
	s.inflight.Add(1)
	defer s.inflight.Add(-1)
	return fn(s.model)
}

// ResetInternalBuffers clears the transient state m accumulated in earlier
// calls. It must run right before every Filter call.
func (s *Shared) ResetInternalBuffers(m Model) error {
	s.resets.Add(1)
	if err := m.ClearMemory(); err != nil {
		return &InferenceError{Op: "reset", Err: err}
	}
	return nil
}

// Close waits for any in-flight call, then releases the model. Later calls
// to WithExclusiveAccess fail with ErrClosed.
func (s *Shared) Close() error {
	s.slot <- struct{}{}
	defer func() { <-s.slot }()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.model.Close()
}

// Stats returns the current counters.
func (s *Shared) Stats() Stats {
	return Stats{
		Waiting:     int(s.waiting.Load()),
		Inflight:    int(s.inflight.Load()),
		Generations: s.generations.Load(),
		Failures:    s.failures.Load(),
		Resets:      s.resets.Load(),
	}
}
