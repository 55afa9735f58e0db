package colorize

import (
	"context"
	"image"
)

// Model is the handle to a loaded colorization network.
type Model interface {
	// Filter colorizes content using style as the colour reference.
	Filter(content, style image.Image, renderFactor int) (image.Image, error)
	// ClearMemory drops transient buffers and caches (frame history for video)
	// accumulated by earlier Filter calls.
	ClearMemory() error
	// Close releases the loaded weights.
	Close() error
}

// VideoColorizer is the video-oriented model. Its visualizer sub-component
// colorizes single frames.
type VideoColorizer interface {
	Visualizer() Model
	Close() error
}

// Backend constructs model variants. Loading is expensive (weights are read
// into memory) and happens once per process.
type Backend interface {
	ImageColorizer(ctx context.Context, artistic bool) (Model, error)
	VideoColorizer(ctx context.Context) (VideoColorizer, error)
}
