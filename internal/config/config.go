package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Stream defaults.
const (
	DefaultBatchWindowMs         = 1500
	DefaultMaxBatchSize          = 50
	DefaultHeartbeatMs           = 30000
	DefaultClientMaxBufferedLogs = 1000
)

// Clamp bounds for stream tunables.
const (
	MinBatchWindowMs = 100
	MaxBatchWindowMs = 10000

	MinBatchSize = 1
	MaxBatchSize = 500

	MinHeartbeatMs = 5000
	MaxHeartbeatMs = 300000
)

// StreamConfig holds the validated tunables for live log streaming.
type StreamConfig struct {
	// BatchWindowMs is how long a session accumulates records before flushing.
	BatchWindowMs int `json:"batchWindowMs" yaml:"batchWindowMs"`
	// MaxBatchSize flushes a batch early once this many records are buffered.
	MaxBatchSize int `json:"maxBatchSize" yaml:"maxBatchSize"`
	// HeartbeatIntervalMs is the keep-alive cadence, independent of batching.
	HeartbeatIntervalMs int `json:"heartbeatIntervalMs" yaml:"heartbeatIntervalMs"`
	// ClientMaxBufferedLogs bounds the client-side display buffer.
	ClientMaxBufferedLogs int `json:"clientMaxBufferedLogs" yaml:"clientMaxBufferedLogs"`
}

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr string       `json:"httpAddr" yaml:"httpAddr"`
	DataDir  string       `json:"dataDir" yaml:"dataDir"`
	APIKey   string       `json:"apiKey" yaml:"apiKey"`
	Stream   StreamConfig `json:"stream" yaml:"stream"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr: ":8080",
		Stream: StreamConfig{
			BatchWindowMs:         DefaultBatchWindowMs,
			MaxBatchSize:          DefaultMaxBatchSize,
			HeartbeatIntervalMs:   DefaultHeartbeatMs,
			ClientMaxBufferedLogs: DefaultClientMaxBufferedLogs,
		},
	}
}

// Clamp forces every stream tunable into its documented range. Zero or
// negative values (typically an unset field) fall back to the default first.
func (s *StreamConfig) Clamp() {
	if s.BatchWindowMs <= 0 {
		s.BatchWindowMs = DefaultBatchWindowMs
	}
	s.BatchWindowMs = clampInt(s.BatchWindowMs, MinBatchWindowMs, MaxBatchWindowMs)

	if s.MaxBatchSize <= 0 {
		s.MaxBatchSize = DefaultMaxBatchSize
	}
	s.MaxBatchSize = clampInt(s.MaxBatchSize, MinBatchSize, MaxBatchSize)

	if s.HeartbeatIntervalMs <= 0 {
		s.HeartbeatIntervalMs = DefaultHeartbeatMs
	}
	s.HeartbeatIntervalMs = clampInt(s.HeartbeatIntervalMs, MinHeartbeatMs, MaxHeartbeatMs)

	if s.ClientMaxBufferedLogs <= 0 {
		s.ClientMaxBufferedLogs = DefaultClientMaxBufferedLogs
	}
}

// Validate reports whether an already-constructed config meets the minimum
// bounds. Clamp never produces a config for which this returns false.
func (s StreamConfig) Validate() bool {
	return s.BatchWindowMs >= MinBatchWindowMs &&
		s.MaxBatchSize >= MinBatchSize &&
		s.HeartbeatIntervalMs >= MinHeartbeatMs
}

// DefaultDataDir picks where the server keeps its store when no data dir is
// configured: XDG_DATA_HOME when set, then the first existing platform
// location, then a dotdir under the home directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "logwell")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	candidates := []struct {
		probe string
		dir   string
	}{
		{"/var/lib", "/var/lib/logwell"},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", "Logwell")},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", "Logwell")},
	}
	for _, c := range candidates {
		if info, err := os.Stat(c.probe); err == nil && info.IsDir() {
			return c.dir
		}
	}
	return filepath.Join(home, ".logwell")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults. Loaded stream tunables are clamped.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	// yaml.v3 accepts JSON as a YAML subset, so one decoder covers both.
	switch filepath.Ext(path) {
	case ".json", ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported extension %q", filepath.Ext(path))
	}
	cfg.Stream.Clamp()
	return cfg, nil
}
