// Package config provides loading, environment overlay, and bounds
// enforcement for Logwell configuration. It exposes a Default() baseline,
// Load() for JSON/YAML files, and FromEnv() for LOGWELL_* overrides.
// Stream tunables are clamped into documented ranges rather than rejected,
// so a bad value can degrade cadence but never prevent startup.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/logwell.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
