package engine

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync"

	"colorizerd/internal/imageio"
)

// fakeWorker implements the worker protocol with a trivial tint filter.
type fakeWorker struct {
	mu          sync.Mutex
	loads       []loadRequest
	resets      int
	filters     int
	unloads     int
	lastRF      string
	lastVariant string
	hadStyle    bool
	filterFail  bool
}

func (f *fakeWorker) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/load", func(w http.ResponseWriter, r *http.Request) {
		var lr loadRequest
		if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
			http.Error(w, "bad load body", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.loads = append(f.loads, lr)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/reset", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.resets++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/v1/unload", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.unloads++
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/filter", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.filters++
		f.lastRF = r.URL.Query().Get("render_factor")
		f.lastVariant = r.URL.Query().Get("variant")
		fail := f.filterFail
		f.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
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
		if sf, _, err := r.FormFile("style"); err == nil {
			sf.Close()
			f.mu.Lock()
			f.hadStyle = true
			f.mu.Unlock()
		}
		out := image.NewNRGBA(src.Bounds())
		for y := out.Rect.Min.Y; y < out.Rect.Max.Y; y++ {
			for x := out.Rect.Min.X; x < out.Rect.Max.X; x++ {
				g := color.GrayModel.Convert(src.At(x, y)).(color.Gray)
				out.Set(x, y, color.NRGBA{R: g.Y, G: g.Y / 2, B: 255 - g.Y, A: 255})
			}
		}
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, out)
	})
	return mux
}

func (f *fakeWorker) loadsCopy() []loadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]loadRequest(nil), f.loads...)
}

func grayImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * y)})
		}
	}
	return img
}
