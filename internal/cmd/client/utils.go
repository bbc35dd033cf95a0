package client

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/logwell/logwell/internal/model"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// apiKeyFromEnv returns the API key sent as a bearer token, if any.
func apiKeyFromEnv() string {
	return os.Getenv("LOGWELL_API_KEY")
}

// authorize attaches the bearer token when one is configured.
func authorize(req *http.Request) {
	if key := apiKeyFromEnv(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

// writeRecordText prints one record as a human-readable line:
// timestamp, upper-cased level, service (when set), message, metadata.
func writeRecordText(w io.Writer, rec model.LogRecord) {
	ts := rec.Timestamp
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		ts = t.Local().Format("15:04:05.000")
	}
	var b strings.Builder
	b.WriteString(ts)
	fmt.Fprintf(&b, " %-5s", strings.ToUpper(string(rec.Level)))
	if rec.Service != "" {
		b.WriteString(" [")
		b.WriteString(rec.Service)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(rec.Message)
	if len(rec.Metadata) > 0 {
		b.WriteString(" ")
		b.Write(rec.Metadata)
	}
	b.WriteString("\n")
	_, _ = io.WriteString(w, b.String())
}
