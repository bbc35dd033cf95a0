package streamclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/logwell/logwell/internal/model"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}

// batchCollector accumulates OnBatch deliveries.
type batchCollector struct {
	mu      sync.Mutex
	batches [][]model.LogRecord
}

func (bc *batchCollector) add(recs []model.LogRecord) {
	bc.mu.Lock()
	bc.batches = append(bc.batches, recs)
	bc.mu.Unlock()
}

func (bc *batchCollector) count() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.batches)
}

func (bc *batchCollector) batch(i int) []model.LogRecord {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.batches[i]
}

// sseHandler serves frames to each connection, then either holds the
// connection open or drops it.
func sseHandler(requests *atomic.Int64, hold bool, frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		fl.Flush()
		for _, f := range frames {
			fmt.Fprint(w, f)
			fl.Flush()
		}
		if hold {
			<-r.Context().Done()
		}
	}
}

func logsFrame(msgs ...string) string {
	payload := "["
	for i, m := range msgs {
		if i > 0 {
			payload += ","
		}
		payload += fmt.Sprintf(`{"message":%q}`, m)
	}
	payload += "]"
	return "event: logs\ndata: " + payload + "\n\n"
}

func newTestClient(t *testing.T, baseURL string, bc *batchCollector, mutate func(*Options)) *Client {
	t.Helper()
	opts := Options{
		BaseURL:              baseURL,
		ProjectID:            "proj-1",
		OnBatch:              bc.add,
		ReconnectBaseDelay:   2 * time.Millisecond,
		MaxReconnectAttempts: 2,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Disconnect)
	return c
}

func TestNewValidatesOptions(t *testing.T) {
	onBatch := func([]model.LogRecord) {}
	cases := []Options{
		{ProjectID: "p", OnBatch: onBatch},
		{BaseURL: "http://x", OnBatch: onBatch},
		{BaseURL: "http://x", ProjectID: "p"},
	}
	for i, opts := range cases {
		if _, err := New(opts); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestConnectReceivesBatches(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(sseHandler(&requests, true,
		logsFrame("hello"), logsFrame("world", "again")))
	t.Cleanup(srv.Close)

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, nil)
	c.Connect()

	waitFor(t, func() bool { return bc.count() == 2 })
	if !c.IsConnected() {
		t.Fatalf("state: %s", c.State())
	}
	if got := bc.batch(0); len(got) != 1 || got[0].Message != "hello" {
		t.Fatalf("first batch: %+v", got)
	}
	if got := bc.batch(1); len(got) != 2 || got[0].Message != "world" {
		t.Fatalf("second batch: %+v", got)
	}
}

func TestConnectNoopWhileConnected(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(sseHandler(&requests, true, logsFrame("x")))
	t.Cleanup(srv.Close)

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, nil)
	c.Connect()
	waitFor(t, c.IsConnected)

	c.Connect()
	c.Connect()
	time.Sleep(20 * time.Millisecond)
	if n := requests.Load(); n != 1 {
		t.Fatalf("requests: %d", n)
	}
	if !c.IsConnected() {
		t.Fatalf("state: %s", c.State())
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	var bc batchCollector
	c := newTestClient(t, "http://127.0.0.1:0", &bc, nil)

	// Never connected.
	c.Disconnect()
	c.Disconnect()
	if c.State() != StateDisconnected {
		t.Fatalf("state: %s", c.State())
	}
}

func TestDisconnectStopsStream(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(sseHandler(&requests, true, logsFrame("x")))
	t.Cleanup(srv.Close)

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, nil)
	c.Connect()
	waitFor(t, c.IsConnected)

	c.Disconnect()
	if c.State() != StateDisconnected {
		t.Fatalf("state: %s", c.State())
	}
	// A dying read goroutine must not flip the state or schedule retries.
	time.Sleep(20 * time.Millisecond)
	if c.State() != StateDisconnected {
		t.Fatalf("state drifted to %s after disconnect", c.State())
	}
}

func TestReconnectAfterStreamDrop(t *testing.T) {
	var requests atomic.Int64
	// First connection sends one frame then closes; later ones stay open.
	handler := func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fl := w.(http.Flusher)
		fmt.Fprint(w, logsFrame(fmt.Sprintf("conn-%d", n)))
		fl.Flush()
		if n > 1 {
			<-r.Context().Done()
		}
	}
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)

	var states []State
	var mu sync.Mutex
	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, func(o *Options) {
		o.OnState = func(s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}
	})
	c.Connect()

	waitFor(t, func() bool { return bc.count() >= 2 && c.IsConnected() })
	if n := requests.Load(); n < 2 {
		t.Fatalf("requests: %d", n)
	}
	mu.Lock()
	defer mu.Unlock()
	sawReconnecting := false
	for _, s := range states {
		if s == StateReconnecting {
			sawReconnecting = true
		}
	}
	if !sawReconnecting {
		t.Fatalf("states: %v", states)
	}
}

func TestRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, nil)
	c.Connect()

	waitFor(t, func() bool { return c.State() == StateDisconnected })
	if err := c.LastError(); !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("last error: %v", err)
	}
}

func TestAttemptCounterResetsOnConnect(t *testing.T) {
	var requests atomic.Int64
	// Drop the first two attempts outright, then serve normally.
	handler := func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n <= 2 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		fmt.Fprint(w, logsFrame("ok"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, func(o *Options) {
		o.MaxReconnectAttempts = 3
	})
	c.Connect()

	waitFor(t, c.IsConnected)
	if err := c.LastError(); err != nil {
		t.Fatalf("last error after connect: %v", err)
	}
}

func TestMalformedLogsFrameDropped(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(sseHandler(&requests, true,
		"event: logs\ndata: {not json]\n\n",
		logsFrame("survivor")))
	t.Cleanup(srv.Close)

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, nil)
	c.Connect()

	waitFor(t, func() bool { return bc.count() == 1 })
	if got := bc.batch(0); len(got) != 1 || got[0].Message != "survivor" {
		t.Fatalf("batch: %+v", got)
	}
	if !c.IsConnected() {
		t.Fatalf("state: %s", c.State())
	}
}

func TestRequestCarriesAuthAndFilter(t *testing.T) {
	var gotAuth, gotFilter, gotProject string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFilter = r.URL.Query().Get("filter")
		gotProject = r.URL.Query().Get("project")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, func(o *Options) {
		o.APIKey = "lw_secret"
		o.Filter = `level == "error"`
	})
	c.Connect()
	waitFor(t, c.IsConnected)

	if gotAuth != "Bearer lw_secret" {
		t.Fatalf("auth: %q", gotAuth)
	}
	if gotFilter != `level == "error"` {
		t.Fatalf("filter: %q", gotFilter)
	}
	if gotProject != "proj-1" {
		t.Fatalf("project: %q", gotProject)
	}
}

// captureAfterFunc replaces the reconnect timer factory with one that
// records each scheduled delay and fires immediately, so the backoff
// schedule can be asserted without waiting it out.
func captureAfterFunc(t *testing.T) func() []time.Duration {
	t.Helper()
	var mu sync.Mutex
	var delays []time.Duration
	orig := afterFunc
	afterFunc = func(d time.Duration, f func()) *time.Timer {
		mu.Lock()
		delays = append(delays, d)
		mu.Unlock()
		go f()
		return time.NewTimer(time.Hour)
	}
	t.Cleanup(func() { afterFunc = orig })
	return func() []time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return append([]time.Duration(nil), delays...)
	}
}

func TestBackoffDelaysDouble(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	scheduled := captureAfterFunc(t)
	base := 10 * time.Millisecond
	var bc batchCollector
	c := newTestClient(t, srv.URL, &bc, func(o *Options) {
		o.ReconnectBaseDelay = base
		o.MaxReconnectAttempts = 3
	})
	c.Connect()

	waitFor(t, func() bool { return c.State() == StateDisconnected })
	if err := c.LastError(); !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("last error: %v", err)
	}

	delays := scheduled()
	want := []time.Duration{base, 2 * base, 4 * base}
	if len(delays) != len(want) {
		t.Fatalf("scheduled retries: %v", delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("retry %d: got %v want %v", i, delays[i], want[i])
		}
	}
	// One initial attempt plus exactly MaxReconnectAttempts retries.
	if n := requests.Load(); n != 4 {
		t.Fatalf("requests: %d", n)
	}
}
