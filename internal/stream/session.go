package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/logwell/logwell/internal/config"
	"github.com/logwell/logwell/internal/hub"
	"github.com/logwell/logwell/internal/model"
	logpkg "github.com/logwell/logwell/pkg/log"
)

// Event names on the wire.
const (
	EventLogs      = "logs"
	EventHeartbeat = "heartbeat"
)

// ErrSlowConsumer reports that a session's inbound buffer overflowed because
// the transport could not keep up with publish volume. The session closes
// rather than queue without bound.
var ErrSlowConsumer = errors.New("stream: slow consumer, buffer overflow")

// Sink is the transport a session writes frames to. Send must be safe to
// call from the session goroutine only. Context carries the connection
// lifetime: when it is done the session shuts down.
type Sink interface {
	Send(event string, data []byte) error
	Flush() error
	Context() context.Context
}

// heartbeatPayload is the data field of a heartbeat frame.
type heartbeatPayload struct {
	Ts int64 `json:"ts"`
}

// Session delivers live log records for one project over one connection.
type Session struct {
	hub       *hub.Hub
	sink      Sink
	projectID string
	cfg       config.StreamConfig
	filter    *Filter
	logger    logpkg.Logger

	recCh chan model.LogRecord

	closeOnce sync.Once
	closed    chan struct{}

	mu       sync.Mutex
	closeErr error
}

// Options configures a Session. Filter and Logger are optional.
type Options struct {
	ProjectID string
	Config    config.StreamConfig
	Filter    *Filter
	Logger    logpkg.Logger
	// BufferSize bounds the per-session inbound channel. Zero means
	// 4x MaxBatchSize.
	BufferSize int
}

// NewSession creates a session for the given project. Run starts delivery.
func NewSession(h *hub.Hub, sink Sink, opts Options) *Session {
	size := opts.BufferSize
	if size <= 0 {
		size = 4 * opts.Config.MaxBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNop()
	}
	return &Session{
		hub:       h,
		sink:      sink,
		projectID: opts.ProjectID,
		cfg:       opts.Config,
		filter:    opts.Filter,
		logger:    logger.With(logpkg.Str("project", opts.ProjectID)),
		recCh:     make(chan model.LogRecord, size),
		closed:    make(chan struct{}),
	}
}

// Close shuts the session down. Idempotent; safe from any goroutine.
func (s *Session) Close(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closeErr = err
		s.mu.Unlock()
		close(s.closed)
	})
}

// enqueue is the hub listener. It never blocks the publisher: a full buffer
// closes the session instead of queuing further data.
func (s *Session) enqueue(rec model.LogRecord) {
	select {
	case <-s.closed:
	case s.recCh <- rec:
	default:
		s.Close(ErrSlowConsumer)
	}
}

// Run subscribes to the hub and delivers batches until the connection
// context is cancelled, a write fails, or Close is called. It always
// unsubscribes and stops both timers before returning. The returned error is
// nil on clean shutdown (client went away or explicit Close(nil)).
func (s *Session) Run() error {
	unsubscribe := s.hub.Subscribe(s.projectID, s.enqueue)
	defer unsubscribe()

	window := time.Duration(s.cfg.BatchWindowMs) * time.Millisecond
	flushTimer := time.NewTimer(window)
	defer flushTimer.Stop()
	if !flushTimer.Stop() {
		<-flushTimer.C
	}
	timerArmed := false

	heartbeat := time.NewTicker(time.Duration(s.cfg.HeartbeatIntervalMs) * time.Millisecond)
	defer heartbeat.Stop()

	ctx := s.sink.Context()
	batch := make([]model.LogRecord, 0, s.cfg.MaxBatchSize)

	disarm := func() {
		if timerArmed && !flushTimer.Stop() {
			<-flushTimer.C
		}
		timerArmed = false
	}

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		data, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("stream: encode batch: %w", err)
		}
		n := len(batch)
		batch = batch[:0]
		if err := s.sink.Send(EventLogs, data); err != nil {
			return err
		}
		if err := s.sink.Flush(); err != nil {
			return err
		}
		s.logger.Debug("stream.flush", logpkg.Int("batch_n", n))
		return nil
	}

	for {
		select {
		case rec := <-s.recCh:
			if s.filter != nil && !s.filter.Match(rec) {
				continue
			}
			batch = append(batch, rec)
			if len(batch) >= s.cfg.MaxBatchSize {
				disarm()
				if err := flush(); err != nil {
					s.Close(err)
					return err
				}
				continue
			}
			if len(batch) == 1 {
				flushTimer.Reset(window)
				timerArmed = true
			}

		case <-flushTimer.C:
			timerArmed = false
			if err := flush(); err != nil {
				s.Close(err)
				return err
			}

		case <-heartbeat.C:
			data, _ := json.Marshal(heartbeatPayload{Ts: time.Now().UnixMilli()})
			if err := s.sink.Send(EventHeartbeat, data); err != nil {
				s.Close(err)
				return err
			}
			if err := s.sink.Flush(); err != nil {
				s.Close(err)
				return err
			}

		case <-ctx.Done():
			s.Close(nil)
			return nil

		case <-s.closed:
			s.mu.Lock()
			err := s.closeErr
			s.mu.Unlock()
			return err
		}
	}
}
