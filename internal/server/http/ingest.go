package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/valyala/fastjson"

	"github.com/logwell/logwell/internal/model"
	logpkg "github.com/logwell/logwell/pkg/log"
)

// maxIngestBody caps one ingest request at 5 MiB.
const maxIngestBody = 5 << 20

// ingestResponse mirrors what SDK clients expect back from the ingest API.
type ingestResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

var ingestParsers fastjson.ParserPool

// handleIngest accepts {"logs":[...]} for a project, validates each entry,
// and hands the good ones to the runtime. A request is only rejected
// wholesale when the body is not valid JSON; individually bad entries are
// counted and reported without failing the rest.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	project := r.URL.Query().Get("project")
	if project == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "project is required"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	p := ingestParsers.Get()
	defer ingestParsers.Put(p)
	root, err := p.ParseBytes(body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid JSON body"})
		return
	}
	entries := root.GetArray("logs")
	if entries == nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing logs array"})
		return
	}

	resp := ingestResponse{}
	recs := make([]model.LogRecord, 0, len(entries))
	for i, entry := range entries {
		rec, err := recordFromEntry(project, entry)
		if err != nil {
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("logs[%d]: %v", i, err))
			continue
		}
		recs = append(recs, rec)
	}

	if err := s.rt.Ingest(recs); err != nil {
		s.logger.Error("ingest failed", logpkg.Str("project", project), logpkg.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	resp.Accepted = len(recs)
	s.logger.Debug("ingest",
		logpkg.Str("project", project),
		logpkg.Int("accepted", resp.Accepted),
		logpkg.Int("rejected", resp.Rejected),
	)
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(resp)
}

func recordFromEntry(project string, entry *fastjson.Value) (model.LogRecord, error) {
	level := model.Level(entry.GetStringBytes("level"))
	if level == "" {
		level = model.LevelInfo
	}
	if !level.Valid() {
		return model.LogRecord{}, fmt.Errorf("unknown level %q", level)
	}
	message := string(entry.GetStringBytes("message"))
	if message == "" {
		return model.LogRecord{}, fmt.Errorf("message is required")
	}

	rec := model.LogRecord{
		ProjectID:  project,
		Level:      level,
		Message:    message,
		Timestamp:  string(entry.GetStringBytes("timestamp")),
		Service:    string(entry.GetStringBytes("service")),
		SourceFile: string(entry.GetStringBytes("sourceFile")),
		LineNumber: entry.GetInt("lineNumber"),
	}
	if meta := entry.Get("metadata"); meta != nil {
		rec.Metadata = meta.MarshalTo(nil)
	}
	return rec, nil
}
