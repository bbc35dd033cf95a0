package config

import (
	"os"
	"strconv"
)

// FromEnv overlays LOGWELL_* environment variables onto cfg. A numeric
// stream tunable that parses is clamped into its documented range, so an
// explicit "0" resolves to the minimum, not the default. Values that fail to
// parse keep whatever cfg already holds.
func FromEnv(cfg *Config) {
	if v := os.Getenv("LOGWELL_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LOGWELL_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LOGWELL_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("LOGWELL_BATCH_WINDOW_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stream.BatchWindowMs = clampInt(n, MinBatchWindowMs, MaxBatchWindowMs)
		}
	}
	if v := os.Getenv("LOGWELL_MAX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stream.MaxBatchSize = clampInt(n, MinBatchSize, MaxBatchSize)
		}
	}
	if v := os.Getenv("LOGWELL_HEARTBEAT_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stream.HeartbeatIntervalMs = clampInt(n, MinHeartbeatMs, MaxHeartbeatMs)
		}
	}
	if v := os.Getenv("LOGWELL_MAX_BUFFERED_LOGS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n < 1 {
				n = 1
			}
			cfg.Stream.ClientMaxBufferedLogs = n
		}
	}
	// Fill in anything the environment left untouched.
	cfg.Stream.Clamp()
}
