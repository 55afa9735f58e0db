package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultAddr              = "0.0.0.0:8000"
	DefaultArchitecture      = "artistic"
	DefaultBackend           = BackendServer
	DefaultWorkerURL         = "http://127.0.0.1:8501"
	DefaultWorkerHost        = "127.0.0.1"
	DefaultRequestTimeoutSec = 300
	DefaultLoadTimeoutSec    = 120
	DefaultMaxQueueDepth     = 32
	DefaultMaxWaitMS         = 30000
	DefaultMaxBodyBytes      = 32 << 20
	DefaultMaxImagePixels    = 40_000_000
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
)

// Backend names.
const (
	BackendServer = "server"
	BackendSpawn  = "spawn"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// Architecture selects the model variant: artistic, stable or video.
	Architecture string `json:"architecture" yaml:"architecture" toml:"architecture"`
	// Backend is "server" (worker already running at WorkerURL) or "spawn".
	Backend         string   `json:"backend" yaml:"backend" toml:"backend"`
	WorkerURL       string   `json:"worker_url" yaml:"worker_url" toml:"worker_url"`
	WorkerAPIKey    string   `json:"worker_api_key" yaml:"worker_api_key" toml:"worker_api_key"`
	WorkerBin       string   `json:"worker_bin" yaml:"worker_bin" toml:"worker_bin"`
	WorkerArgs      []string `json:"worker_args" yaml:"worker_args" toml:"worker_args"`
	WorkerHost      string   `json:"worker_host" yaml:"worker_host" toml:"worker_host"`
	WorkerPortStart int      `json:"worker_port_start" yaml:"worker_port_start" toml:"worker_port_start"`
	WorkerPortEnd   int      `json:"worker_port_end" yaml:"worker_port_end" toml:"worker_port_end"`
	WeightsDir      string   `json:"weights_dir" yaml:"weights_dir" toml:"weights_dir"`

	RequestTimeoutSec int   `json:"request_timeout_sec" yaml:"request_timeout_sec" toml:"request_timeout_sec"`
	LoadTimeoutSec    int   `json:"load_timeout_sec" yaml:"load_timeout_sec" toml:"load_timeout_sec"`
	MaxQueueDepth     int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitMS         int   `json:"max_wait_ms" yaml:"max_wait_ms" toml:"max_wait_ms"`
	MaxBodyBytes      int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	MaxImagePixels    int   `json:"max_image_pixels" yaml:"max_image_pixels" toml:"max_image_pixels"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Architecture == "" {
		c.Architecture = DefaultArchitecture
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.WorkerURL == "" {
		c.WorkerURL = DefaultWorkerURL
	}
	if c.WorkerHost == "" {
		c.WorkerHost = DefaultWorkerHost
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = DefaultRequestTimeoutSec
	}
	if c.LoadTimeoutSec <= 0 {
		c.LoadTimeoutSec = DefaultLoadTimeoutSec
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxWaitMS <= 0 {
		c.MaxWaitMS = DefaultMaxWaitMS
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.MaxImagePixels <= 0 {
		c.MaxImagePixels = DefaultMaxImagePixels
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate reports settings that cannot work together. The architecture
// itself is checked at model setup.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendServer:
		if strings.TrimSpace(c.WorkerURL) == "" {
			return fmt.Errorf("backend %q requires worker_url", c.Backend)
		}
	case BackendSpawn:
		if strings.TrimSpace(c.WorkerBin) == "" {
			return fmt.Errorf("backend %q requires worker_bin", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendServer, BackendSpawn)
	}
	if c.WorkerPortEnd > 0 && c.WorkerPortEnd < c.WorkerPortStart {
		return fmt.Errorf("worker_port_end %d < worker_port_start %d", c.WorkerPortEnd, c.WorkerPortStart)
	}
	return nil
}
