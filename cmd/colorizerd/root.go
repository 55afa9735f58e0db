package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"colorizerd/internal/colorize"
	"colorizerd/internal/common/fsutil"
	"colorizerd/internal/config"
	"colorizerd/internal/engine"
	"colorizerd/internal/events"
	"colorizerd/internal/httpapi"
	"colorizerd/internal/registry"
	"colorizerd/internal/service"
	"colorizerd/pkg/types"
)

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "colorizerd",
		Short:         "Serve a DeOldify-style colorization model over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, os.Stderr)
		},
	}
	bindFlags(root.PersistentFlags(), o)

	root.AddCommand(&cobra.Command{
		Use:   "variants",
		Short: "List supported model variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVariants(cmd.OutOrStdout())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report backend and weights readiness as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			rep := runCheck(cmd.Context(), cfg)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if !rep.OK {
				return errors.New("check failed")
			}
			return nil
		},
	})
	return root
}

func printVariants(w io.Writer) error {
	for _, v := range colorize.Variants() {
		mark := ""
		if v == colorize.DefaultVariant {
			mark = " (default)"
		}
		if _, err := fmt.Fprintf(w, "%-9s %-9s %s%s\n", v, v.DisplayName(), registry.WeightsFileName(string(v)), mark); err != nil {
			return err
		}
	}
	return nil
}

// scanWeights resolves and scans cfg.WeightsDir; an empty dir disables the scan.
func scanWeights(cfg config.Config) ([]types.VariantWeights, error) {
	if cfg.WeightsDir == "" {
		return nil, nil
	}
	return registry.LoadDir(cfg.WeightsDir)
}

func serverConfig(cfg config.Config, weights []types.VariantWeights, log zerolog.Logger) engine.ServerConfig {
	wm := make(map[string]string, len(weights))
	for _, w := range weights {
		wm[w.Variant] = w.Path
	}
	return engine.ServerConfig{
		BaseURL:        cfg.WorkerURL,
		APIKey:         cfg.WorkerAPIKey,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		LoadTimeout:    time.Duration(cfg.LoadTimeoutSec) * time.Second,
		Weights:        wm,
		Logger:         log,
	}
}

func buildBackend(cfg config.Config, weights []types.VariantWeights, pub events.Publisher, log zerolog.Logger) colorize.Backend {
	scfg := serverConfig(cfg, weights, log)
	if cfg.Backend == config.BackendSpawn {
		return engine.NewSubprocessBackend(engine.SubprocessConfig{
			Bin:          cfg.WorkerBin,
			Args:         cfg.WorkerArgs,
			Host:         cfg.WorkerHost,
			PortStart:    cfg.WorkerPortStart,
			PortEnd:      cfg.WorkerPortEnd,
			ReadyTimeout: time.Duration(cfg.LoadTimeoutSec) * time.Second,
			Weights:      weights,
			Server:       scfg,
			Publisher:    pub,
			Logger:       log,
		})
	}
	return engine.NewServerBackend(scfg)
}

// newService builds the service for cfg without loading the model.
func newService(cfg config.Config, log zerolog.Logger) (*service.Service, error) {
	variant, err := colorize.ParseVariant(cfg.Architecture)
	if err != nil {
		return nil, err
	}
	weights, err := scanWeights(cfg)
	if err != nil {
		return nil, fmt.Errorf("scan weights: %w", err)
	}
	pub := events.Log{L: log}
	return service.New(service.Config{
		Variant:        variant,
		Backend:        buildBackend(cfg, weights, pub, log),
		BackendName:    cfg.Backend,
		MaxQueueDepth:  cfg.MaxQueueDepth,
		MaxWait:        time.Duration(cfg.MaxWaitMS) * time.Millisecond,
		MaxImagePixels: cfg.MaxImagePixels,
		Weights:        weights,
		Publisher:      pub,
		Logger:         log,
	}), nil
}

func configureHTTP(ctx context.Context, cfg config.Config, log zerolog.Logger) {
	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
}

// serve loads the model and serves HTTP until ctx is canceled.
func serve(ctx context.Context, cfg config.Config, logOut io.Writer) error {
	log := buildLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error().Err(err).Msg("release model")
		}
	}()
	if err := svc.Setup(ctx); err != nil {
		return fmt.Errorf("setup %s: %w", cfg.Architecture, err)
	}

	configureHTTP(ctx, cfg, log)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Str("variant", string(svc.Variant())).Str("backend", cfg.Backend).Msg("colorizerd listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

type checkReport struct {
	OK           bool                   `json:"ok"`
	Architecture string                 `json:"architecture"`
	Backend      string                 `json:"backend"`
	Worker       string                 `json:"worker"`
	WorkerOK     bool                   `json:"worker_ok"`
	WorkerError  string                 `json:"worker_error,omitempty"`
	WeightsDir   string                 `json:"weights_dir,omitempty"`
	Weights      []types.VariantWeights `json:"weights,omitempty"`
	WeightsError string                 `json:"weights_error,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
}

// runCheck validates the configuration without loading the model.
func runCheck(ctx context.Context, cfg config.Config) checkReport {
	rep := checkReport{Architecture: cfg.Architecture, Backend: cfg.Backend, WeightsDir: cfg.WeightsDir}
	variant, err := colorize.ParseVariant(cfg.Architecture)
	if err != nil {
		rep.Errors = append(rep.Errors, err.Error())
	}
	ws, err := scanWeights(cfg)
	if err != nil {
		rep.WeightsError = err.Error()
		rep.Errors = append(rep.Errors, "weights: "+err.Error())
	}
	rep.Weights = ws
	if cfg.WeightsDir != "" && err == nil {
		if _, ok := registry.Lookup(ws, string(variant)); !ok && variant != "" {
			rep.Errors = append(rep.Errors, "no weights for "+string(variant)+" in "+cfg.WeightsDir)
		}
	}

	switch cfg.Backend {
	case config.BackendSpawn:
		rep.Worker = cfg.WorkerBin
		rep.WorkerOK = fsutil.IsExecutableFile(cfg.WorkerBin)
		if !rep.WorkerOK {
			rep.WorkerError = "worker binary not executable"
		}
	default:
		rep.Worker = cfg.WorkerURL
		hctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := engine.NewServerBackend(serverConfig(cfg, ws, zerolog.Nop())).Health(hctx); err != nil {
			rep.WorkerError = err.Error()
		} else {
			rep.WorkerOK = true
		}
	}
	if !rep.WorkerOK {
		rep.Errors = append(rep.Errors, "worker: "+rep.WorkerError)
	}
	rep.OK = len(rep.Errors) == 0
	return rep
}
