package e2e

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"colorizerd/internal/colorize"
	"colorizerd/internal/service"
	"colorizerd/pkg/types"
)

func TestE2E_Generate_Meta_Status(t *testing.T) {
	wk := &worker{}
	srv := newStack(t, wk, service.Config{Variant: colorize.VariantArtistic})

	// 1) /readyz is 200 once Setup succeeded
	resp, body := httpGet(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/readyz status=%d body=%s", resp.StatusCode, body)
	}

	// 2) /meta advertises the render_factor domain
	resp, body = httpGet(t, srv.URL+"/meta")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/meta status=%d", resp.StatusCode)
	}
	var meta types.MetaResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		t.Fatalf("/meta json: %v", err)
	}
	rf := meta.Commands[0].Inputs[1]
	if rf.Name != "render_factor" || *rf.Min != 7 || *rf.Max != 45 || *rf.Default != 35 {
		t.Fatalf("unexpected render_factor spec: %+v", rf)
	}

	// 3) default render factor, output has the input's shape
	status, hdr, body := httpPostJSON(srv.URL+"/generate", generateBody(grayPNG(t, 256, 256), nil))
	if status != http.StatusOK {
		t.Fatalf("/generate status=%d body=%s", status, body)
	}
	if hdr.Get("X-Generation-ID") == "" {
		t.Fatal("missing X-Generation-ID")
	}
	img := decodeResult(t, body)
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("bounds=%v", b)
	}

	// 4) extremes of the domain are accepted
	for _, v := range []float64{colorize.MinRenderFactor, colorize.MaxRenderFactor} {
		status, _, body = httpPostJSON(srv.URL+"/v1/generate", generateBody(grayPNG(t, 30, 20), f(v)))
		if status != http.StatusOK {
			t.Fatalf("rf=%v status=%d body=%s", v, status, body)
		}
		if b := decodeResult(t, body).Bounds(); b.Dx() != 30 || b.Dy() != 20 {
			t.Fatalf("rf=%v bounds=%v", v, b)
		}
	}

	calls, rfs, _ := wk.snapshot()
	want := []string{"reset", "filter", "reset", "filter", "reset", "filter"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("worker calls=%v", calls)
	}
	if strings.Join(rfs, ",") != "35,7,45" {
		t.Fatalf("render factors=%v", rfs)
	}

	// 5) /status counts generations and resets
	_, body = httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("/status json: %v", err)
	}
	if st.State != "ready" || st.GenerationsTotal != 3 || st.ResetsTotal != 3 || st.Variant != "artistic" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestE2E_InvalidRenderFactorNeverReachesWorker(t *testing.T) {
	wk := &worker{}
	srv := newStack(t, wk, service.Config{})
	for _, v := range []float64{6, 50, 7.5} {
		status, _, body := httpPostJSON(srv.URL+"/generate", generateBody(grayPNG(t, 8, 8), f(v)))
		if status != http.StatusBadRequest {
			t.Fatalf("rf=%v status=%d body=%s", v, status, body)
		}
		if !strings.Contains(string(body), "render_factor") {
			t.Fatalf("rf=%v body=%s", v, body)
		}
	}
	if calls, _, _ := wk.snapshot(); len(calls) != 0 {
		t.Fatalf("worker was called: %v", calls)
	}
}

func TestE2E_ConcurrentRequestsAreSerialized(t *testing.T) {
	wk := &worker{delay: 5 * time.Millisecond}
	srv := newStack(t, wk, service.Config{Variant: colorize.VariantStable})

	const n = 8
	bodies := make([][]byte, n)
	for i := range bodies {
		bodies[i] = generateBody(grayPNG(t, 16+i, 16), f(float64(10+i)))
	}
	var wg sync.WaitGroup
	statuses := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], _, _ = httpPostJSON(srv.URL+"/generate", bodies[i])
		}(i)
	}
	wg.Wait()
	for i, s := range statuses {
		if s != http.StatusOK {
			t.Fatalf("request %d status=%d", i, s)
		}
	}
	calls, rfs, maxActive := wk.snapshot()
	if maxActive != 1 {
		t.Fatalf("filters overlapped: max concurrent=%d", maxActive)
	}
	if len(calls) != 2*n {
		t.Fatalf("calls=%v", calls)
	}
	for i := 0; i < len(calls); i += 2 {
		if calls[i] != "reset" || calls[i+1] != "filter" {
			t.Fatalf("call %d not a reset/filter pair: %v", i, calls)
		}
	}
	seen := map[string]bool{}
	for _, rf := range rfs {
		seen[rf] = true
	}
	for i := 0; i < n; i++ {
		if !seen[strconv.Itoa(10+i)] {
			t.Fatalf("render factor %d never reached the worker: %v", 10+i, rfs)
		}
	}
}

// TestE2E_Backpressure429 verifies 429 when the queue is full and the wait
// timeout elapses.
func TestE2E_Backpressure429(t *testing.T) {
	wk := &worker{block: make(chan struct{}), started: make(chan struct{})}
	srv := newStack(t, wk, service.Config{MaxQueueDepth: 1, MaxWait: 20 * time.Millisecond})

	payload := generateBody(grayPNG(t, 8, 8), nil)
	done := make(chan int, 1)
	go func() {
		s, _, _ := httpPostJSON(srv.URL+"/generate", payload)
		done <- s
	}()
	<-wk.started

	status, _, body := httpPostJSON(srv.URL+"/generate", payload)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", status, body)
	}
	close(wk.block)
	if s := <-done; s != http.StatusOK {
		t.Fatalf("first request status=%d", s)
	}
}

func TestE2E_WorkerFailureIsNotRetried(t *testing.T) {
	wk := &worker{failNext: true}
	srv := newStack(t, wk, service.Config{})

	status, _, body := httpPostJSON(srv.URL+"/generate", generateBody(grayPNG(t, 8, 8), nil))
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", status, body)
	}
	if calls, _, _ := wk.snapshot(); len(calls) != 2 {
		t.Fatalf("expected one reset/filter pair, got %v", calls)
	}

	// The model stays usable for the next request.
	status, _, body = httpPostJSON(srv.URL+"/generate", generateBody(grayPNG(t, 8, 8), nil))
	if status != http.StatusOK {
		t.Fatalf("follow-up status=%d body=%s", status, body)
	}
	_, body = httpGet(t, srv.URL+"/status")
	var st types.StatusResponse
	_ = json.Unmarshal(body, &st)
	if st.FailuresTotal != 1 || st.GenerationsTotal != 1 || st.LastError == "" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

// TestSpawnMode_RealWorker colorizes through a real worker spawned per variant.
// Skips unless COLORIZERD_E2E_WORKER_BIN points to a worker executable.
func TestSpawnMode_RealWorker(t *testing.T) {
	bin := strings.TrimSpace(os.Getenv("COLORIZERD_E2E_WORKER_BIN"))
	if bin == "" {
		t.Skip("COLORIZERD_E2E_WORKER_BIN not set; skipping spawn-mode test")
	}
	srv := newSpawnStack(t, bin, os.Getenv("COLORIZERD_E2E_WEIGHTS_DIR"))
	status, _, body := httpPostJSON(srv.URL+"/generate", generateBody(grayPNG(t, 64, 48), f(21)))
	if status != http.StatusOK {
		t.Fatalf("/generate status=%d body=%s", status, body)
	}
	if b := decodeResult(t, body).Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("bounds=%v", b)
	}
}
