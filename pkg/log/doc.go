// Package log provides the structured logging system used by Logwell
// services. It wraps log/slog behind a small Field-based API so call
// sites stay uniform across the server and CLI.
package log
