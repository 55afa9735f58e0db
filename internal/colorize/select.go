package colorize

import (
	"context"
	"errors"
	"image"
)

// Select loads the model for v from backend. Unknown variants fail with a
// ConfigurationError, as do backend load failures.
func Select(ctx context.Context, backend Backend, v Variant) (Model, error) {
	if backend == nil {
		return nil, &ConfigurationError{Variant: string(v), Err: errors.New("no backend configured")}
	}
	switch v {
	case VariantArtistic, VariantStable:
		m, err := backend.ImageColorizer(ctx, v == VariantArtistic)
		if err != nil {
			return nil, &ConfigurationError{Variant: string(v), Err: err}
		}
		return m, nil
	case VariantVideo:
		vc, err := backend.VideoColorizer(ctx)
		if err != nil {
			return nil, &ConfigurationError{Variant: string(v), Err: err}
		}
		if vc.Visualizer() == nil {
			_ = vc.Close()
			return nil, &ConfigurationError{Variant: string(v), Err: errors.New("video colorizer has no visualizer")}
		}
		return videoModel{vc: vc}, nil
	default:
		return nil, &ConfigurationError{Variant: string(v), Err: errUnknownVariant}
	}
}

// videoModel exposes a VideoColorizer through the single-image Model surface.
type videoModel struct{ vc VideoColorizer }

func (m videoModel) Filter(content, style image.Image, renderFactor int) (image.Image, error) {
	return m.vc.Visualizer().Filter(content, style, renderFactor)
}

func (m videoModel) ClearMemory() error { return m.vc.Visualizer().ClearMemory() }

func (m videoModel) Close() error { return m.vc.Close() }
