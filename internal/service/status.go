package service

import (
	"time"

	"colorizerd/internal/colorize"
	"colorizerd/pkg/types"
)

// Status returns a snapshot of the model lifecycle and queue.
func (s *Service) Status() types.StatusResponse {
	s.mu.RLock()
	state, lastErr, sh := s.state, s.lastErr, s.shared
	s.mu.RUnlock()

	now := time.Now()
	out := types.StatusResponse{
		State:          string(state),
		Variant:        string(s.cfg.Variant),
		Backend:        s.cfg.BackendName,
		QueueLen:       len(s.queueCh),
		MaxQueueDepth:  cap(s.queueCh),
		LastError:      lastErr,
		UptimeSeconds:  int64(now.Sub(s.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
	if sh != nil {
		st := sh.Stats()
		out.Inflight = st.Inflight
		out.GenerationsTotal = st.Generations
		out.FailuresTotal = st.Failures
		out.ResetsTotal = st.Resets
	}
	return out
}

// Meta describes the setup option and the generate command.
func (s *Service) Meta() types.MetaResponse {
	choices := make([]string, 0, len(colorize.Variants()))
	for _, v := range colorize.Variants() {
		choices = append(choices, v.DisplayName())
	}
	return types.MetaResponse{
		Options: []types.OptionSpec{{
			Name:    "architecture",
			Type:    "category",
			Choices: choices,
			Default: colorize.DefaultVariant.DisplayName(),
			Value:   s.cfg.Variant.DisplayName(),
		}},
		Commands: []types.CommandSpec{{
			Name: "generate",
			Inputs: []types.FieldSpec{
				{Name: "image", Type: "image"},
				{
					Name:    "render_factor",
					Type:    "number",
					Min:     f64(colorize.MinRenderFactor),
					Max:     f64(colorize.MaxRenderFactor),
					Step:    f64(colorize.RenderFactorStep),
					Default: f64(colorize.DefaultRenderFactor),
				},
			},
			Outputs: []types.FieldSpec{{Name: "image", Type: "image"}},
		}},
		Weights: s.cfg.Weights,
	}
}

func f64(v float64) *float64 { return &v }
