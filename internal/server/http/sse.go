package httpserver

import (
	"context"
	"net/http"
)

// sseSink implements the stream.Sink interface for Server-Sent Events.
//
// Frames are written as "event: <name>\ndata: <payload>\n\n" with LF line
// endings, matching what the stream client's parser consumes.
type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

// Send writes one SSE frame.
func (s sseSink) Send(event string, data []byte) error {
	if _, err := s.w.Write([]byte("event: " + event + "\n")); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	_, err := s.w.Write([]byte("\n\n"))
	return err
}

// Context returns the request context for cancellation.
func (s sseSink) Context() context.Context {
	return s.r.Context()
}

// Flush flushes the HTTP response writer if it supports flushing.
//
// This ensures batches and heartbeats reach the client immediately instead
// of sitting in the response buffer.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
