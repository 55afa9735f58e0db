package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"colorizerd/internal/config"
)

// parse runs the root command's flag parsing without executing it.
func parse(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	o := &options{}
	cmd := &cobra.Command{Use: "colorizerd"}
	bindFlags(cmd.Flags(), o)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return resolveConfig(cmd, o)
}

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "colorizerd.yaml")
	if err := os.WriteFile(p, []byte("addr: :9000\narchitecture: stable\nmax_queue_depth: 4\nworker_url: http://file:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COLORIZERD_WORKER_URL", "http://env:2")

	cfg, err := parse(t, "--config", p, "--architecture", "video")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.MaxQueueDepth != 4 {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Architecture != "video" {
		t.Fatalf("flag should override file: %q", cfg.Architecture)
	}
	if cfg.WorkerURL != "http://env:2" {
		t.Fatalf("env should override file: %q", cfg.WorkerURL)
	}
	if cfg.Backend != config.BackendServer || cfg.MaxBodyBytes != config.DefaultMaxBodyBytes {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestResolveConfigEmptyEnvKeepsFileValue(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "colorizerd.yaml")
	if err := os.WriteFile(p, []byte("architecture: video\nmax_image_pixels: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COLORIZERD_ARCHITECTURE", "")
	t.Setenv("COLORIZERD_MAX_IMAGE_PIXELS", "")

	cfg, err := parse(t, "--config", p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Architecture != "video" {
		t.Fatalf("empty env replaced file architecture: %q", cfg.Architecture)
	}
	if cfg.MaxImagePixels != 1000 {
		t.Fatalf("empty env replaced file max_image_pixels: %d", cfg.MaxImagePixels)
	}

	t.Setenv("COLORIZERD_MAX_IMAGE_PIXELS", "2000")
	cfg, err = parse(t, "--config", p)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.MaxImagePixels != 2000 {
		t.Fatalf("env should override file: %d", cfg.MaxImagePixels)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	if _, err := parse(t, "--config", "/definitely/not/here.yaml"); err == nil {
		t.Fatal("expected load error")
	}
	if _, err := parse(t, "--backend", "spawn"); err == nil || !strings.Contains(err.Error(), "worker_bin") {
		t.Fatalf("expected worker_bin error, got %v", err)
	}
}

func TestPrintVariants(t *testing.T) {
	var buf bytes.Buffer
	if err := printVariants(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"artistic", "ColorizeStable_gen.pth", "video", "(default)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Fatalf("expected 3 lines, got %d", n)
	}
}

func TestRunCheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ColorizeArtistic_gen.pth"), []byte("w"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{WorkerURL: ts.URL, WeightsDir: dir, Architecture: "Artistic"}
	cfg.ApplyDefaults()
	rep := runCheck(context.Background(), cfg)
	if !rep.OK || !rep.WorkerOK || len(rep.Weights) != 1 {
		b, _ := json.Marshal(rep)
		t.Fatalf("unexpected report: %s", b)
	}

	cfg.Architecture = "stable"
	if rep := runCheck(context.Background(), cfg); rep.OK {
		t.Fatal("expected missing stable weights to fail")
	}

	cfg = config.Config{Backend: config.BackendSpawn, WorkerBin: filepath.Join(dir, "ColorizeArtistic_gen.pth")}
	cfg.ApplyDefaults()
	rep = runCheck(context.Background(), cfg)
	if rep.OK || rep.WorkerOK || rep.WorkerError == "" {
		t.Fatalf("non-executable worker accepted: %+v", rep)
	}
}

func TestServeFailsWhenModelCannotLoad(t *testing.T) {
	cfg := config.Config{WorkerURL: "http://127.0.0.1:1", Addr: "127.0.0.1:0"}
	cfg.ApplyDefaults()
	var logs bytes.Buffer
	err := serve(context.Background(), cfg, &logs)
	if err == nil || !strings.Contains(err.Error(), "setup artistic") {
		t.Fatalf("expected setup error, got %v", err)
	}
	if !strings.Contains(logs.String(), "setup failed") {
		t.Fatalf("setup failure not logged: %s", logs.String())
	}
}

func TestUnknownArchitectureRejected(t *testing.T) {
	cfg := config.Config{Architecture: "sepia"}
	cfg.ApplyDefaults()
	if err := serve(context.Background(), cfg, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "sepia") {
		t.Fatalf("expected unknown variant error, got %v", err)
	}
}
