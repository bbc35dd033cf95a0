// Package httpserver exposes the Logwell HTTP API: log ingestion, paginated
// history queries, and the per-project live stream over Server-Sent Events.
package httpserver
