package engine

import (
	"context"

	"colorizerd/internal/colorize"
)

// Unavailable is a backend whose loads always fail with a
// dependency-unavailable error carrying Reason.
type Unavailable struct{ Reason string }

var _ colorize.Backend = Unavailable{}

func (u Unavailable) ImageColorizer(context.Context, bool) (colorize.Model, error) {
	return nil, ErrDependencyUnavailable(u.reason())
}

func (u Unavailable) VideoColorizer(context.Context) (colorize.VideoColorizer, error) {
	return nil, ErrDependencyUnavailable(u.reason())
}

func (u Unavailable) reason() string {
	if u.Reason == "" {
		return "colorization engine not configured"
	}
	return u.Reason
}
