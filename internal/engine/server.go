package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"colorizerd/internal/colorize"
	"colorizerd/internal/imageio"
)

// ServerConfig configures a backend talking to a running worker.
type ServerConfig struct {
	BaseURL string
	APIKey  string
	// RequestTimeout bounds reset/filter calls; 0 means no limit.
	RequestTimeout time.Duration
	// LoadTimeout bounds the weights load call; 0 means no limit.
	LoadTimeout    time.Duration
	ConnectTimeout time.Duration
	// Weights maps a variant name to the weights path sent with load.
	Weights map[string]string
	Logger  zerolog.Logger
}

// ServerBackend implements colorize.Backend against a worker's HTTP API.
type ServerBackend struct {
	cfg        ServerConfig
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ colorize.Backend = (*ServerBackend)(nil)

// NewServerBackend constructs a server-backed engine.
func NewServerBackend(cfg ServerConfig) *ServerBackend {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: every call carries its own context deadline.
	return &ServerBackend{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Transport: tr, Timeout: 0},
		log:        cfg.Logger.With().Str("adapter", "worker_server").Logger(),
	}
}

// BaseURL returns the worker URL without trailing slash.
func (b *ServerBackend) BaseURL() string { return b.baseURL }

// ImageColorizer loads the artistic or stable image model on the worker.
func (b *ServerBackend) ImageColorizer(ctx context.Context, artistic bool) (colorize.Model, error) {
	v := colorize.VariantStable
	if artistic {
		v = colorize.VariantArtistic
	}
	return b.load(ctx, string(v), nil)
}

// VideoColorizer loads the video model on the worker.
func (b *ServerBackend) VideoColorizer(ctx context.Context) (colorize.VideoColorizer, error) {
	m, err := b.load(ctx, string(colorize.VariantVideo), nil)
	if err != nil {
		return nil, err
	}
	return &videoColorizer{vis: m}, nil
}

type loadRequest struct {
	Variant string `json:"variant"`
	Weights string `json:"weights,omitempty"`
}

func (b *ServerBackend) load(ctx context.Context, variant string, onClose func() error) (*remoteModel, error) {
	if b.baseURL == "" {
		return nil, ErrDependencyUnavailable("worker url not configured")
	}
	if b.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.LoadTimeout)
		defer cancel()
	}
	body, _ := json.Marshal(loadRequest{Variant: variant, Weights: b.cfg.Weights[variant]})
	start := time.Now()
	if err := b.post(ctx, "load", "/v1/load", "application/json", bytes.NewReader(body), nil); err != nil {
		return nil, err
	}
	b.log.Info().Str("variant", variant).Dur("dur", time.Since(start)).Msg("model loaded")
	return &remoteModel{b: b, variant: variant, onClose: onClose}, nil
}

// Health checks GET /v1/health.
func (b *ServerBackend) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/health", nil)
	if err != nil {
		return err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return ErrDependencyUnavailable("worker unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WorkerError{Op: "health", Status: resp.StatusCode}
	}
	return nil
}

// post sends one request; a 2xx body is copied into out when out is non-nil.
func (b *ServerBackend) post(ctx context.Context, op, path, contentType string, body io.Reader, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("worker %s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &WorkerError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	_, err = io.Copy(out, resp.Body)
	return err
}

func (b *ServerBackend) callCtx() (context.Context, context.CancelFunc) {
	if b.cfg.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), b.cfg.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}

// remoteModel is a model loaded on the worker.
type remoteModel struct {
	b       *ServerBackend
	variant string
	onClose func() error
}

func (m *remoteModel) ClearMemory() error {
	ctx, cancel := m.b.callCtx()
	defer cancel()
	return m.b.post(ctx, "reset", "/v1/reset", "", nil, nil)
}

func (m *remoteModel) Filter(content, style image.Image, renderFactor int) (image.Image, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, part := range []struct {
		name string
		img  image.Image
	}{{"content", content}, {"style", style}} {
		fw, err := mw.CreateFormFile(part.name, part.name+".png")
		if err != nil {
			return nil, err
		}
		if err := png.Encode(fw, part.img); err != nil {
			return nil, fmt.Errorf("encode %s: %w", part.name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("render_factor", strconv.Itoa(renderFactor))
	q.Set("variant", m.variant)

	ctx, cancel := m.b.callCtx()
	defer cancel()
	var out bytes.Buffer
	if err := m.b.post(ctx, "filter", "/v1/filter?"+q.Encode(), mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	img, _, err := imageio.DecodeBytes(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("worker filter: %w", err)
	}
	return img, nil
}

func (m *remoteModel) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := m.b.post(ctx, "unload", "/v1/unload", "", nil, nil)
	if m.onClose != nil {
		err = errors.Join(err, m.onClose())
	}
	return err
}

// videoColorizer wraps the remote video model; frames go through Visualizer.
type videoColorizer struct{ vis *remoteModel }

func (v *videoColorizer) Visualizer() colorize.Model { return v.vis }

func (v *videoColorizer) Close() error { return v.vis.Close() }
