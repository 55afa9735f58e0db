package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"colorizerd/internal/engine"
	"colorizerd/internal/httpapi"
	"colorizerd/internal/imageio"
	"colorizerd/internal/registry"
	"colorizerd/internal/service"
)

// worker is a fake colorization worker speaking the /v1 protocol. It records
// the reset/filter sequence and the peak number of concurrent filters.
type worker struct {
	mu        sync.Mutex
	calls     []string
	rfs       []string
	active    int
	maxActive int
	dirty     bool
	failNext  bool
	delay     time.Duration
	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func (wk *worker) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/v1/load", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/v1/unload", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/v1/reset", func(w http.ResponseWriter, r *http.Request) {
		wk.mu.Lock()
		wk.calls = append(wk.calls, "reset")
		wk.dirty = false
		wk.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/filter", func(w http.ResponseWriter, r *http.Request) {
		wk.mu.Lock()
		wk.calls = append(wk.calls, "filter")
		wk.rfs = append(wk.rfs, r.URL.Query().Get("render_factor"))
		wk.active++
		if wk.active > wk.maxActive {
			wk.maxActive = wk.active
		}
		stale := wk.dirty
		wk.dirty = true
		fail := wk.failNext
		wk.failNext = false
		delay, block := wk.delay, wk.block
		wk.mu.Unlock()
		defer func() {
			wk.mu.Lock()
			wk.active--
			wk.mu.Unlock()
		}()
		if wk.started != nil {
			wk.startOnce.Do(func() { close(wk.started) })
		}
		if block != nil {
			<-block
		}
		time.Sleep(delay)
		if stale {
			http.Error(w, "buffers not reset", http.StatusConflict)
			return
		}
		if fail {
			http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
			return
		}
		cf, _, err := r.FormFile("content")
		if err != nil {
			http.Error(w, "missing content", http.StatusBadRequest)
			return
		}
		defer cf.Close()
		src, _, err := imageio.Decode(cf)
		if err != nil {
			http.Error(w, "bad content", http.StatusBadRequest)
			return
		}
		out := image.NewNRGBA(src.Bounds())
		for y := out.Rect.Min.Y; y < out.Rect.Max.Y; y++ {
			for x := out.Rect.Min.X; x < out.Rect.Max.X; x++ {
				g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
				out.Set(x, y, color.NRGBA{R: g.Y, G: g.Y / 3, B: 255 - g.Y, A: 255})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, out)
	})
	return mux
}

func (wk *worker) snapshot() (calls, rfs []string, maxActive int) {
	wk.mu.Lock()
	defer wk.mu.Unlock()
	return append([]string(nil), wk.calls...), append([]string(nil), wk.rfs...), wk.maxActive
}

// newStack wires fake worker -> server backend -> service -> HTTP API.
func newStack(t *testing.T, wk *worker, cfg service.Config) *httptest.Server {
	t.Helper()
	ws := httptest.NewServer(wk.handler())
	t.Cleanup(ws.Close)
	cfg.Backend = engine.NewServerBackend(engine.ServerConfig{
		BaseURL:        ws.URL,
		RequestTimeout: 10 * time.Second,
		Logger:         zerolog.Nop(),
	})
	cfg.BackendName = "server"
	cfg.Logger = zerolog.Nop()
	svc := service.New(cfg)
	if err := svc.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	httpapi.SetLogger(zerolog.Nop())
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return srv
}

func grayPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) * 255 / (w + h))})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func generateBody(image string, rf *float64) []byte {
	m := map[string]any{"image": image}
	if rf != nil {
		m["render_factor"] = *rf
	}
	b, _ := json.Marshal(m)
	return b
}

func f(v float64) *float64 { return &v }

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// httpPostJSON is safe to call from non-test goroutines: it reports errors
// through the returned status (0) instead of t.Fatalf.
func httpPostJSON(url string, payload []byte) (int, http.Header, []byte) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, []byte(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, []byte(err.Error())
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, resp.Header, body
}

func decodeResult(t *testing.T, body []byte) image.Image {
	t.Helper()
	var out struct {
		Image string `json:"image"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json: %v body=%s", err, body)
	}
	if !strings.HasPrefix(out.Image, "data:image/png;base64,") {
		t.Fatalf("unexpected image prefix: %.40q", out.Image)
	}
	img, err := imageio.DecodeDataURI(out.Image)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return img
}

func newSpawnStack(t *testing.T, bin, weightsDir string) *httptest.Server {
	t.Helper()
	ws, err := registry.LoadDir(weightsDir)
	if err != nil {
		t.Fatalf("scan weights: %v", err)
	}
	svc := service.New(service.Config{
		Backend: engine.NewSubprocessBackend(engine.SubprocessConfig{
			Bin:          bin,
			ReadyTimeout: 2 * time.Minute,
			Weights:      ws,
			Server:       engine.ServerConfig{RequestTimeout: 2 * time.Minute},
		}),
		BackendName: "spawn",
		Weights:     ws,
		Logger:      zerolog.Nop(),
	})
	if err := svc.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Close()
	})
	return srv
}
