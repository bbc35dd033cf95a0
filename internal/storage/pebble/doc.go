// Package pebblestore wraps a Pebble database with the handful of helpers
// the log store needs: keyed writes with a configurable sync policy, value
// reads, and prefix iteration. All higher-level key layout lives in the
// logstore package.
package pebblestore
