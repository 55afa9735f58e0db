package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"colorizerd/internal/config"
)

const envPrefix = "COLORIZERD_"

// options mirrors config.Config for flag binding.
type options struct {
	configPath string
	cfg        config.Config
}

// envName maps a flag name to its environment variable, e.g. worker-url -> COLORIZERD_WORKER_URL.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func envString(flag, def string) string {
	if v, ok := os.LookupEnv(envName(flag)); ok && v != "" {
		return v
	}
	return def
}

func envInt(flag string, def int) int {
	if v, ok := os.LookupEnv(envName(flag)); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(flag string, def bool) bool {
	if v, ok := os.LookupEnv(envName(flag)); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envCSV(flag string) []string { return splitCSV(os.Getenv(envName(flag))) }

// splitCSV splits a comma-separated list, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// bindFlags registers the config flags on fs. Zero defaults leave the
// decision to the config file or config.ApplyDefaults.
func bindFlags(fs *pflag.FlagSet, o *options) {
	c := &o.cfg
	fs.StringVar(&o.configPath, "config", envString("config", ""), "Config file (.yaml, .json or .toml)")
	fs.StringVar(&c.Addr, "addr", envString("addr", ""), "HTTP listen address (default "+config.DefaultAddr+")")
	fs.StringVar(&c.Architecture, "architecture", envString("architecture", ""), "Model variant: artistic, stable or video")
	fs.StringVar(&c.Backend, "backend", envString("backend", ""), "Engine backend: server or spawn")
	fs.StringVar(&c.WorkerURL, "worker-url", envString("worker-url", ""), "Worker base URL for the server backend")
	fs.StringVar(&c.WorkerAPIKey, "worker-api-key", envString("worker-api-key", ""), "Bearer token sent to the worker")
	fs.StringVar(&c.WorkerBin, "worker-bin", envString("worker-bin", ""), "Worker executable for the spawn backend")
	fs.StringSliceVar(&c.WorkerArgs, "worker-args", envCSV("worker-args"), "Arguments placed before the generated worker flags")
	fs.StringVar(&c.WorkerHost, "worker-host", envString("worker-host", ""), "Host the spawned worker binds to")
	fs.IntVar(&c.WorkerPortStart, "worker-port-start", envInt("worker-port-start", 0), "First port tried for the spawned worker (0 = any free port)")
	fs.IntVar(&c.WorkerPortEnd, "worker-port-end", envInt("worker-port-end", 0), "Last port tried for the spawned worker")
	fs.StringVar(&c.WeightsDir, "weights-dir", envString("weights-dir", ""), "Directory with Colorize*_gen.pth weights (empty = worker default)")
	fs.IntVar(&c.RequestTimeoutSec, "request-timeout-sec", envInt("request-timeout-sec", 0), "Timeout for one worker reset/filter call")
	fs.IntVar(&c.LoadTimeoutSec, "load-timeout-sec", envInt("load-timeout-sec", 0), "Timeout for loading the model weights")
	fs.IntVar(&c.MaxQueueDepth, "max-queue-depth", envInt("max-queue-depth", 0), "Maximum requests waiting for or holding the model")
	fs.IntVar(&c.MaxWaitMS, "max-wait-ms", envInt("max-wait-ms", 0), "Maximum wait for a queue slot before 429")
	fs.Int64Var(&c.MaxBodyBytes, "max-body-bytes", int64(envInt("max-body-bytes", 0)), "Maximum request body size")
	fs.IntVar(&c.MaxImagePixels, "max-image-pixels", envInt("max-image-pixels", 0), "Maximum width*height of an input image")
	fs.BoolVar(&c.CORSEnabled, "cors-enabled", envBool("cors-enabled", false), "Enable CORS")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", envCSV("cors-origins"), "Allowed CORS origins")
	fs.StringVar(&c.LogLevel, "log-level", envString("log-level", ""), "Log level: debug|info|warn|error")
	fs.StringVar(&c.LogFormat, "log-format", envString("log-format", ""), "Log format: json or console")
}

// resolveConfig layers file values under flag and environment values, then
// applies defaults and validates.
func resolveConfig(cmd *cobra.Command, o *options) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		fc, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = fc
	}
	fs := cmd.Flags()
	set := func(name string) bool {
		if fs.Changed(name) {
			return true
		}
		// An empty variable does not override the file.
		v, ok := os.LookupEnv(envName(name))
		return ok && v != ""
	}
	c := o.cfg
	if set("addr") {
		cfg.Addr = c.Addr
	}
	if set("architecture") {
		cfg.Architecture = c.Architecture
	}
	if set("backend") {
		cfg.Backend = c.Backend
	}
	if set("worker-url") {
		cfg.WorkerURL = c.WorkerURL
	}
	if set("worker-api-key") {
		cfg.WorkerAPIKey = c.WorkerAPIKey
	}
	if set("worker-bin") {
		cfg.WorkerBin = c.WorkerBin
	}
	if set("worker-args") {
		cfg.WorkerArgs = c.WorkerArgs
	}
	if set("worker-host") {
		cfg.WorkerHost = c.WorkerHost
	}
	if set("worker-port-start") {
		cfg.WorkerPortStart = c.WorkerPortStart
	}
	if set("worker-port-end") {
		cfg.WorkerPortEnd = c.WorkerPortEnd
	}
	if set("weights-dir") {
		cfg.WeightsDir = c.WeightsDir
	}
	if set("request-timeout-sec") {
		cfg.RequestTimeoutSec = c.RequestTimeoutSec
	}
	if set("load-timeout-sec") {
		cfg.LoadTimeoutSec = c.LoadTimeoutSec
	}
	if set("max-queue-depth") {
		cfg.MaxQueueDepth = c.MaxQueueDepth
	}
	if set("max-wait-ms") {
		cfg.MaxWaitMS = c.MaxWaitMS
	}
	if set("max-body-bytes") {
		cfg.MaxBodyBytes = c.MaxBodyBytes
	}
	if set("max-image-pixels") {
		cfg.MaxImagePixels = c.MaxImagePixels
	}
	if set("cors-enabled") {
		cfg.CORSEnabled = c.CORSEnabled
	}
	if set("cors-origins") {
		cfg.CORSOrigins = c.CORSOrigins
	}
	if set("log-level") {
		cfg.LogLevel = c.LogLevel
	}
	if set("log-format") {
		cfg.LogFormat = c.LogFormat
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
