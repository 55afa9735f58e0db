package engine

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"colorizerd/internal/colorize"
	"colorizerd/internal/events"
	"colorizerd/internal/registry"
	"colorizerd/pkg/types"
)

// SubprocessConfig configures a backend that spawns its own worker.
type SubprocessConfig struct {
	// Bin is the worker executable.
	Bin string
	// Args are placed before the generated --variant/--host/--port flags.
	Args []string
	// ExtraArgs are appended after the generated flags.
	ExtraArgs []string
	// Env is appended to the current environment.
	Env       []string
	Host      string
	PortStart int
	PortEnd   int
	// ReadyTimeout bounds the wait for /v1/health; default 30s.
	ReadyTimeout time.Duration
	Weights      []types.VariantWeights
	// Server carries timeouts and credentials for the spawned worker.
	Server    ServerConfig
	Publisher events.Publisher
	Logger    zerolog.Logger
}

// SubprocessBackend spawns one worker process per loaded model and talks to
// it through a ServerBackend.
type SubprocessBackend struct {
	cfg        SubprocessConfig
	mu         sync.Mutex
	procs      map[string]*procInfo // key: variant
	httpClient *http.Client
	publisher  events.Publisher
	log        zerolog.Logger
}

var _ colorize.Backend = (*SubprocessBackend)(nil)

type procInfo struct {
	cmd     *exec.Cmd
	baseURL string
	pid     int
	exited  chan struct{}
}

// NewSubprocessBackend constructs a spawning backend.
func NewSubprocessBackend(cfg SubprocessConfig) *SubprocessBackend {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 30 * time.Second
	}
	return &SubprocessBackend{
		cfg:        cfg,
		procs:      make(map[string]*procInfo),
		httpClient: &http.Client{Timeout: 0},
		publisher:  events.OrNoop(cfg.Publisher),
		log:        cfg.Logger.With().Str("adapter", "worker_subprocess").Logger(),
	}
}

func (a *SubprocessBackend) ImageColorizer(ctx context.Context, artistic bool) (colorize.Model, error) {
	v := colorize.VariantStable
	if artistic {
		v = colorize.VariantArtistic
	}
	return a.start(ctx, string(v))
}

func (a *SubprocessBackend) VideoColorizer(ctx context.Context) (colorize.VideoColorizer, error) {
	m, err := a.start(ctx, string(colorize.VariantVideo))
	if err != nil {
		return nil, err
	}
	return &videoColorizer{vis: m}, nil
}

func (a *SubprocessBackend) start(ctx context.Context, variant string) (*remoteModel, error) {
	baseURL, err := a.ensureProcess(ctx, variant)
	if err != nil {
		return nil, err
	}
	scfg := a.cfg.Server
	scfg.BaseURL = baseURL
	scfg.Logger = a.cfg.Logger
	m, err := NewServerBackend(scfg).load(ctx, variant, func() error { return a.Stop(variant) })
	if err != nil {
		_ = a.Stop(variant)
		return nil, err
	}
	return m, nil
}

// BaseURL reports the URL of the worker serving variant, if running.
func (a *SubprocessBackend) BaseURL(variant string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p := a.procs[variant]; p != nil {
		return p.baseURL, true
	}
	return "", false
}

func (a *SubprocessBackend) buildArgs(variant string, port int) []string {
	args := append([]string(nil), a.cfg.Args...)
	args = append(args, "--variant", variant, "--host", a.cfg.Host, "--port", strconv.Itoa(port))
	if w, ok := registry.Lookup(a.cfg.Weights, variant); ok {
		args = append(args, "--weights", w.Path)
	}
	return append(args, a.cfg.ExtraArgs...)
}

// ensureProcess starts the worker for variant and waits for readiness.
func (a *SubprocessBackend) ensureProcess(ctx context.Context, variant string) (string, error) {
	if strings.TrimSpace(a.cfg.Bin) == "" {
		return "", ErrDependencyUnavailable("worker binary not configured")
	}
	if p, ok := a.BaseURL(variant); ok {
		if a.isHealthy(p, time.Second) {
			return p, nil
		}
		_ = a.Stop(variant)
	}

	var port int
	var err error
	if a.cfg.PortStart > 0 && a.cfg.PortEnd >= a.cfg.PortStart {
		port, err = pickPortInRange(a.cfg.Host, a.cfg.PortStart, a.cfg.PortEnd)
	} else {
		port, err = pickFreePort(a.cfg.Host)
	}
	if err != nil {
		return "", err
	}
	baseURL := "http://" + net.JoinHostPort(a.cfg.Host, strconv.Itoa(port))

	cmd := exec.Command(a.cfg.Bin, a.buildArgs(variant, port)...)
	if len(a.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), a.cfg.Env...)
	}
	// Keep stderr in memory; its tail is reported on early exit.
	var stderr syncBuffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return "", ErrDependencyUnavailable(fmt.Sprintf("start worker: %v", err))
	}
	pid := cmd.Process.Pid
	a.log.Info().Str("variant", variant).Int("pid", pid).Str("host", a.cfg.Host).Int("port", port).Msg("worker start")
	a.publisher.Publish(events.Event{Name: "spawn_start", Subject: variant, Fields: map[string]any{"pid": pid, "host": a.cfg.Host, "port": port}})

	p := &procInfo{cmd: cmd, baseURL: baseURL, pid: pid, exited: make(chan struct{})}
	waitErrCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		close(p.exited)
		waitErrCh <- err
	}()
	a.mu.Lock()
	a.procs[variant] = p
	a.mu.Unlock()

	deadline := time.NewTimer(a.cfg.ReadyTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if a.isHealthy(baseURL, time.Second) {
			a.log.Info().Str("variant", variant).Int("pid", pid).Str("url", baseURL).Msg("worker ready")
			a.publisher.Publish(events.Event{Name: "spawn_ready", Subject: variant, Fields: map[string]any{"pid": pid, "url": baseURL}})
			return baseURL, nil
		}
		select {
		case werr := <-waitErrCh:
			a.forget(variant, p)
			tail := stderr.Tail(4096)
			fields := map[string]any{"pid": pid}
			if werr != nil {
				fields["error"] = werr.Error()
			} else {
				fields["before_ready"] = true
			}
			a.log.Error().Str("variant", variant).Int("pid", pid).AnErr("err", werr).Msg("worker exited before ready")
			a.publisher.Publish(events.Event{Name: "spawn_exit", Subject: variant, Fields: fields})
			return "", ErrDependencyUnavailable(fmt.Sprintf("worker exited before ready: %v; stderr tail: %s", werr, tail))
		case <-deadline.C:
			a.log.Error().Str("variant", variant).Int("pid", pid).Msg("worker not ready in time")
			a.publisher.Publish(events.Event{Name: "spawn_timeout", Subject: variant, Fields: map[string]any{"pid": pid}})
			_ = a.Stop(variant)
			return "", ErrDependencyUnavailable("worker not ready in time: " + baseURL)
		case <-ctx.Done():
			_ = a.Stop(variant)
			return "", ctx.Err()
		case <-tick.C:
		}
	}
}

func (a *SubprocessBackend) forget(variant string, p *procInfo) {
	a.mu.Lock()
	if a.procs[variant] == p {
		delete(a.procs, variant)
	}
	a.mu.Unlock()
}

func (a *SubprocessBackend) isHealthy(baseURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Stop terminates the worker serving variant, if any: SIGTERM first, kill
// after two seconds.
func (a *SubprocessBackend) Stop(variant string) error {
	a.mu.Lock()
	p := a.procs[variant]
	delete(a.procs, variant)
	a.mu.Unlock()
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.exited:
	case <-time.After(2 * time.Second):
		_ = p.cmd.Process.Kill()
		<-p.exited
	}
	a.log.Info().Str("variant", variant).Int("pid", p.pid).Msg("worker stopped")
	a.publisher.Publish(events.Event{Name: "spawn_stop", Subject: variant, Fields: map[string]any{"pid": p.pid}})
	return nil
}

// StopAll terminates all spawned workers. Best effort.
func (a *SubprocessBackend) StopAll() {
	a.mu.Lock()
	variants := make([]string, 0, len(a.procs))
	for k := range a.procs {
		variants = append(variants, k)
	}
	a.mu.Unlock()
	for _, v := range variants {
		_ = a.Stop(v)
	}
}

func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// syncBuffer is a bytes.Buffer safe for the exec copier goroutine and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Tail returns at most n trailing bytes.
func (b *syncBuffer) Tail(n int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}
