package colorize

import (
	"errors"
	"fmt"
	"image"
)

// Generate runs one request against the shared model: validate, then under
// exclusive access reset the model's buffers and filter the image against
// itself. Validation failures return before the model is touched.
func Generate(state *Shared, req GenerationRequest) (GenerationResponse, error) {
	nr, err := Validate(req)
	if err != nil {
		return GenerationResponse{}, err
	}
	var out image.Image
	err = state.WithExclusiveAccess(func(m Model) error {
		if err := state.ResetInternalBuffers(m); err != nil {
			return err
		}
		res, err := m.Filter(nr.Image, nr.Image, nr.RenderFactor)
		if err != nil {
			return &InferenceError{Op: "filter", Err: err}
		}
		out = res
		return nil
	})
	if err == nil {
		err = checkOutput(nr.Image.Bounds(), out)
	}
	if err != nil {
		state.failures.Add(1)
		return GenerationResponse{}, err
	}
	state.generations.Add(1)
	return GenerationResponse{Image: out}, nil
}

func checkOutput(in image.Rectangle, out image.Image) error {
	if out == nil {
		return &InferenceError{Op: "filter", Err: errors.New("model returned no image")}
	}
	ob := out.Bounds()
	if ob.Dx() != in.Dx() || ob.Dy() != in.Dy() {
		return &InferenceError{Op: "filter", Err: fmt.Errorf("output is %dx%d, want %dx%d", ob.Dx(), ob.Dy(), in.Dx(), in.Dy())}
	}
	return nil
}
