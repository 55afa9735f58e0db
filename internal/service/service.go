package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"colorizerd/internal/colorize"
	"colorizerd/internal/events"
)

// State represents the lifecycle state of the model.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
	StateClosed  State = "closed"
)

// Service owns the shared model for the process and serves requests on it.
type Service struct {
	mu      sync.RWMutex
	cfg     Config
	state   State
	lastErr string
	shared  *colorize.Shared
	started bool

	// queueCh holds one token per admitted request (waiting or running).
	queueCh   chan struct{}
	maxWait   time.Duration
	publisher events.Publisher
	log       zerolog.Logger
	startTime time.Time
}

// New constructs a Service from cfg. The model is not loaded until Setup.
func New(cfg Config) *Service {
	if cfg.Variant == "" {
		cfg.Variant = colorize.DefaultVariant
	}
	if cfg.MaxQueueDepth <= 0 {
		cfg.MaxQueueDepth = defaultMaxQueueDepth
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
	if cfg.MaxImagePixels <= 0 {
		cfg.MaxImagePixels = defaultMaxImagePixels
	}
	return &Service{
		cfg:       cfg,
		state:     StateLoading,
		queueCh:   make(chan struct{}, cfg.MaxQueueDepth),
		maxWait:   cfg.MaxWait,
		publisher: events.OrNoop(cfg.Publisher),
		log:       cfg.Logger.With().Str("component", "service").Logger(),
		startTime: time.Now(),
	}
}

// Setup selects and loads the configured variant. It runs once; the
// returned error is a *colorize.ConfigurationError when the variant is
// unknown or the model fails to load.
func (s *Service) Setup(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadySetup
	}
	s.started = true
	s.mu.Unlock()

	v := s.cfg.Variant
	s.publisher.Publish(events.Event{Name: "setup_start", Subject: string(v), Fields: map[string]any{"backend": s.cfg.BackendName}})
	start := time.Now()
	m, err := colorize.Select(ctx, s.cfg.Backend, v)
	if err != nil {
		s.mu.Lock()
		s.state = StateError
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.log.Error().Err(err).Str("variant", string(v)).Msg("setup failed")
		s.publisher.Publish(events.Event{Name: "setup_error", Subject: string(v), Fields: map[string]any{"error": err.Error()}})
		return err
	}
	s.mu.Lock()
	s.shared = colorize.NewShared(v, m)
	s.state = StateReady
	s.lastErr = ""
	s.mu.Unlock()
	dur := time.Since(start)
	s.log.Info().Str("variant", string(v)).Str("backend", s.cfg.BackendName).Dur("dur", dur).Msg("model ready")
	s.publisher.Publish(events.Event{Name: "setup_done", Subject: string(v), Fields: map[string]any{"dur_ms": dur.Milliseconds()}})
	return nil
}

// Ready reports whether requests can be served.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateReady && s.shared != nil
}

// Variant returns the configured variant.
func (s *Service) Variant() colorize.Variant { return s.cfg.Variant }

// sharedForRequest returns the model owner when ready.
func (s *Service) sharedForRequest() (*colorize.Shared, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady || s.shared == nil {
		return nil, notReadyError{state: s.state}
	}
	return s.shared, nil
}

func (s *Service) recordErr(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

// Close stops serving, waits for the in-flight generation and releases the
// model and any spawned worker.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	sh := s.shared
	s.state = StateClosed
	s.mu.Unlock()

	var err error
	if sh != nil {
		err = sh.Close()
	}
	if st, ok := s.cfg.Backend.(interface{ StopAll() }); ok {
		st.StopAll()
	}
	s.publisher.Publish(events.Event{Name: "close", Subject: string(s.cfg.Variant)})
	s.log.Info().Msg("model released")
	return err
}
