package colorize

import (
	"fmt"
	"image"
	"math"

	"colorizerd/internal/imageio"
)

// render_factor domain.
const (
	MinRenderFactor     = 7
	MaxRenderFactor     = 45
	RenderFactorStep    = 1
	DefaultRenderFactor = 35
)

// GenerationRequest is one colorization request as decoded by the host.
type GenerationRequest struct {
	Image image.Image
	// RenderFactor nil selects DefaultRenderFactor.
	RenderFactor *float64
}

// NormalizedRequest is a request that passed validation.
type NormalizedRequest struct {
	Image        *imageio.RGB
	RenderFactor int
}

// GenerationResponse carries the colorized image.
type GenerationResponse struct {
	Image image.Image
}

// Validate re-checks the request against its declared domains and converts
// the image to packed RGB. It touches no shared state.
func Validate(req GenerationRequest) (NormalizedRequest, error) {
	rf, err := ValidateRenderFactor(req.RenderFactor)
	if err != nil {
		return NormalizedRequest{}, err
	}
	if req.Image == nil {
		return NormalizedRequest{}, &ValidationError{Field: "image", Reason: "missing"}
	}
	b := req.Image.Bounds()
	if b.Empty() {
		return NormalizedRequest{}, &ValidationError{Field: "image", Reason: fmt.Sprintf("empty bounds %v", b)}
	}
	return NormalizedRequest{Image: imageio.ToRGB(req.Image), RenderFactor: rf}, nil
}

// ValidateRenderFactor checks a render factor on its own; nil yields the default.
func ValidateRenderFactor(p *float64) (int, error) {
	if p == nil {
		return DefaultRenderFactor, nil
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: "render_factor", Reason: "not a finite number"}
	}
	if v < MinRenderFactor || v > MaxRenderFactor {
		return 0, &ValidationError{Field: "render_factor", Reason: fmt.Sprintf("%v outside [%d,%d]", v, MinRenderFactor, MaxRenderFactor)}
	}
	steps := (v - MinRenderFactor) / RenderFactorStep
	if steps != math.Trunc(steps) {
		return 0, &ValidationError{Field: "render_factor", Reason: fmt.Sprintf("%v is not a multiple of step %d", v, RenderFactorStep)}
	}
	return int(v), nil
}
