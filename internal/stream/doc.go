// Package stream implements the server side of live log delivery: one
// Session per connected viewer, subscribed to the hub, batching records
// into frames and emitting heartbeats over a caller-provided Sink.
//
// A session guarantees publish order within its connection, flushes a batch
// when it reaches the configured size or when the batch window elapses, and
// closes exactly once on write failure, client cancellation, or overflow.
package stream
