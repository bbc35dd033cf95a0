// Package model defines the log record types shared by the ingest,
// streaming, and storage layers.
package model

import "encoding/json"

// Level is the severity of a log record.
type Level string

// Severity levels, lowest to highest.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal:
		return true
	}
	return false
}

// LogRecord is one log entry flowing through the pipeline. It is created by
// the ingest boundary and treated as immutable afterwards: the hub and
// sessions only route references, the store only serializes it.
//
// Metadata is kept as raw JSON; its schema belongs to the producer and is
// never interpreted here.
type LogRecord struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"projectId"`
	Level      Level           `json:"level"`
	Message    string          `json:"message"`
	Timestamp  string          `json:"timestamp"`
	Service    string          `json:"service,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	SourceFile string          `json:"sourceFile,omitempty"`
	LineNumber int             `json:"lineNumber,omitempty"`
}
