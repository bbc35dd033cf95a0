package streamclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/logwell/logwell/internal/model"
)

// State is the observable connection state.
type State int32

// Connection states.
const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateDisconnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Defaults for the reconnect state machine.
const (
	DefaultReconnectBaseDelay   = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
)

// ErrRetriesExhausted reports that reconnection was abandoned after the
// configured number of attempts.
var ErrRetriesExhausted = errors.New("streamclient: reconnect attempts exhausted")

// Options configures a Client.
type Options struct {
	// BaseURL of the Logwell server, e.g. "http://127.0.0.1:8080" (required).
	BaseURL string
	// ProjectID selects the stream (required).
	ProjectID string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// Filter is an optional server-side CEL filter expression.
	Filter string
	// OnBatch receives each decoded logs frame, in stream order (required).
	OnBatch func(recs []model.LogRecord)
	// OnState, when set, observes every state transition.
	OnState func(s State)
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// ReconnectBaseDelay is the first retry delay; each subsequent failure
	// doubles it. Defaults to 3s.
	ReconnectBaseDelay time.Duration
	// MaxReconnectAttempts is how many retries are attempted after
	// consecutive failures before giving up. Defaults to 5.
	MaxReconnectAttempts int
}

// Client is a reconnecting consumer of one project's live log stream.
// All exported methods are safe for concurrent use.
type Client struct {
	opts Options

	mu             sync.Mutex
	state          State
	lastErr        error
	attempt        int
	gen            uint64
	cancel         context.CancelFunc
	reconnectTimer *time.Timer
}

// New validates opts and returns an idle client. Connect starts it.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("streamclient: BaseURL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("streamclient: invalid BaseURL: %w", err)
	}
	if opts.ProjectID == "" {
		return nil, errors.New("streamclient: ProjectID is required")
	}
	if opts.OnBatch == nil {
		return nil, errors.New("streamclient: OnBatch is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.ReconnectBaseDelay <= 0 {
		opts.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	return &Client{opts: opts, state: StateIdle}, nil
}

// Connect opens the stream. A no-op while already Connecting or Connected.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return
	}
	c.stopReconnectLocked()
	ctx := c.startAttemptLocked()
	c.mu.Unlock()
	go c.run(ctx)
}

// startAttemptLocked transitions to Connecting under c.mu and returns the
// context governing the new attempt.
func (c *Client) startAttemptLocked() context.Context {
	c.setStateLocked(StateConnecting)
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	return withGen(ctx, c.gen)
}

// Disconnect tears the connection down: it cancels any in-flight network
// operation, clears any pending reconnect timer, and forces the state to
// Disconnected. Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.stopReconnectLocked()
	c.attempt = 0
	c.setStateLocked(StateDisconnected)
}

// IsConnected reports whether the stream is live.
func (c *Client) IsConnected() bool { return c.State() == StateConnected }

// IsConnecting reports whether a connection attempt is in flight.
func (c *Client) IsConnecting() bool { return c.State() == StateConnecting }

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent connection error, or nil.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

func (c *Client) stopReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

type genKey struct{}

func withGen(ctx context.Context, gen uint64) context.Context {
	return context.WithValue(ctx, genKey{}, gen)
}

func ctxGen(ctx context.Context) uint64 {
	v, _ := ctx.Value(genKey{}).(uint64)
	return v
}

// run performs one connection attempt and its read loop. It belongs to one
// generation; once a newer attempt or a Disconnect supersedes it, its state
// reports are ignored.
func (c *Client) run(ctx context.Context) {
	resp, err := c.open(ctx)
	if err != nil {
		c.connectionLost(ctx, err)
		return
	}
	defer resp.Body.Close()

	c.mu.Lock()
	if ctxGen(ctx) != c.gen || c.state != StateConnecting {
		// Superseded while the request was in flight.
		c.mu.Unlock()
		return
	}
	c.attempt = 0
	c.lastErr = nil
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	var parser frameParser
	buf := make([]byte, 16<<10)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range parser.Feed(buf[:n]) {
				c.handleEvent(ev)
			}
		}
		if err != nil {
			c.connectionLost(ctx, fmt.Errorf("streamclient: stream ended: %w", err))
			return
		}
	}
}

func (c *Client) open(ctx context.Context) (*http.Response, error) {
	u := fmt.Sprintf("%s/v1/logs/stream?project=%s", c.opts.BaseURL, url.QueryEscape(c.opts.ProjectID))
	if c.opts.Filter != "" {
		u += "&filter=" + url.QueryEscape(c.opts.Filter)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("streamclient: server returned %s", resp.Status)
	}
	return resp, nil
}

// handleEvent decodes one frame. A logs frame that fails to decode is
// dropped; the stream carries on with the next frame.
func (c *Client) handleEvent(ev Event) {
	switch ev.Name {
	case "logs":
		var recs []model.LogRecord
		if err := json.Unmarshal(ev.Data, &recs); err != nil {
			return
		}
		c.opts.OnBatch(recs)
	case "heartbeat":
		// Liveness only; nothing to do.
	}
}

// swappable for tests
var afterFunc = time.AfterFunc

// connectionLost handles a failed attempt or a dropped stream: it schedules
// the next attempt with exponential backoff, doubling the delay per
// consecutive failure, or gives up once MaxReconnectAttempts retries have
// been spent.
func (c *Client) connectionLost(ctx context.Context, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctxGen(ctx) != c.gen || c.state == StateDisconnected {
		// Explicitly disconnected or superseded; not a failure.
		return
	}
	c.lastErr = err
	if c.attempt >= c.opts.MaxReconnectAttempts {
		c.lastErr = fmt.Errorf("%w (last: %v)", ErrRetriesExhausted, err)
		c.setStateLocked(StateDisconnected)
		return
	}
	delay := c.opts.ReconnectBaseDelay << c.attempt
	c.attempt++
	c.setStateLocked(StateReconnecting)
	c.reconnectTimer = afterFunc(delay, func() {
		c.mu.Lock()
		if c.state != StateReconnecting {
			c.mu.Unlock()
			return
		}
		rctx := c.startAttemptLocked()
		c.mu.Unlock()
		c.run(rctx)
	})
}
