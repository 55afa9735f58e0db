package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"colorizerd/internal/colorize"
	"colorizerd/internal/events"
	"colorizerd/internal/imageio"
	"colorizerd/pkg/types"
)

// Generate decodes the request, waits for a queue slot and runs one
// reset-then-filter pass on the shared model. Request fields are checked
// before admission so malformed requests never queue.
func (s *Service) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	shared, err := s.sharedForRequest()
	if err != nil {
		return types.GenerateResponse{}, err
	}
	variant := string(shared.Variant())
	start := time.Now()

	rf, err := colorize.ValidateRenderFactor(req.RenderFactor)
	if err != nil {
		generateTotal.WithLabelValues(variant, outcomeInvalid).Inc()
		return types.GenerateResponse{}, err
	}
	format, err := outputFormat(req.OutputFormat)
	if err != nil {
		generateTotal.WithLabelValues(variant, outcomeInvalid).Inc()
		return types.GenerateResponse{}, err
	}
	img, err := imageio.DecodeDataURILimit(req.Image, s.cfg.MaxImagePixels)
	if err != nil {
		generateTotal.WithLabelValues(variant, outcomeInvalid).Inc()
		return types.GenerateResponse{}, &colorize.ValidationError{Field: "image", Reason: err.Error()}
	}

	id := uuid.NewString()
	b := img.Bounds()
	log := s.log.With().Str("generation_id", id).Str("variant", variant).Logger()
	log.Debug().Int("render_factor", rf).Int("width", b.Dx()).Int("height", b.Dy()).Msg("generate")

	release, err := s.admit(ctx)
	if err != nil {
		outcome := outcomeBusy
		if !IsTooBusy(err) {
			outcome = outcomeCanceled
		}
		generateTotal.WithLabelValues(variant, outcome).Inc()
		log.Warn().Err(err).Msg("generate not admitted")
		return types.GenerateResponse{}, err
	}
	resp, err := colorize.Generate(shared, colorize.GenerationRequest{Image: img, RenderFactor: req.RenderFactor})
	release()
	if err != nil {
		if errors.Is(err, colorize.ErrClosed) {
			err = notReadyError{state: StateClosed}
		}
		generateTotal.WithLabelValues(variant, outcomeError).Inc()
		s.recordErr(err)
		log.Error().Err(err).Msg("generate failed")
		s.publisher.Publish(events.Event{Name: "generate_error", Subject: variant, Fields: map[string]any{"id": id, "error": err.Error()}})
		return types.GenerateResponse{}, err
	}

	uri, err := imageio.EncodeDataURI(resp.Image, format)
	if err != nil {
		generateTotal.WithLabelValues(variant, outcomeError).Inc()
		err = fmt.Errorf("encode result: %w", err)
		s.recordErr(err)
		return types.GenerateResponse{}, err
	}
	dur := time.Since(start)
	generateTotal.WithLabelValues(variant, outcomeOK).Inc()
	generateDuration.WithLabelValues(variant).Observe(dur.Seconds())
	log.Debug().Dur("dur", dur).Msg("generate done")
	s.publisher.Publish(events.Event{Name: "generate_done", Subject: variant, Fields: map[string]any{
		"id":            id,
		"render_factor": rf,
		"width":         b.Dx(),
		"height":        b.Dy(),
		"dur_ms":        dur.Milliseconds(),
	}})
	return types.GenerateResponse{Image: uri, GenerationID: id}, nil
}

func outputFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", imageio.FormatPNG:
		return imageio.FormatPNG, nil
	case imageio.FormatJPEG, "jpg":
		return imageio.FormatJPEG, nil
	default:
		return "", &colorize.ValidationError{Field: "output_format", Reason: fmt.Sprintf("unsupported %q", s)}
	}
}
