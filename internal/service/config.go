package service

import (
	"time"

	"github.com/rs/zerolog"

	"colorizerd/internal/colorize"
	"colorizerd/internal/events"
	"colorizerd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth  = 32
	defaultMaxWait        = 30 * time.Second
	defaultMaxImagePixels = 40_000_000
)

// Config encapsulates all tunables for Service construction.
type Config struct {
	Variant colorize.Variant
	Backend colorize.Backend
	// BackendName is reported by Status (server, spawn, ...).
	BackendName string
	// MaxQueueDepth bounds requests waiting for or holding the model.
	MaxQueueDepth int
	// MaxWait bounds the wait for a queue slot; the model itself is
	// awaited without timeout once a slot is held.
	MaxWait time.Duration
	// MaxImagePixels caps width*height of a decoded input image.
	MaxImagePixels int
	Weights        []types.VariantWeights
	Publisher      events.Publisher
	Logger         zerolog.Logger
}
