// Package streamclient consumes a Logwell live log stream. It maintains the
// HTTP connection, parses server-sent event frames out of the byte stream,
// hands decoded log batches to a callback, and reconnects with exponential
// backoff when the stream drops. A RingBuffer is provided for display-side
// retention of the most recent records.
package streamclient
