package stream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/logwell/logwell/internal/model"
)

// Filter wraps a compiled CEL program evaluated against each record before
// it enters a session's batch. A nil or disabled filter matches everything.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr into a Filter. An empty expression yields a
// disabled filter. The expression sees these variables:
//
//	level    string (debug|info|warn|error|fatal)
//	message  string
//	service  string
//	project  string
//	ts_ms    int (record timestamp in unix ms, 0 if unparseable)
//	metadata dyn (parsed metadata JSON)
//	now_ms   int (evaluation time in unix ms)
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("level", cel.StringType),
		cel.Variable("message", cel.StringType),
		cel.Variable("service", cel.StringType),
		cel.Variable("project", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("metadata", cel.DynType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return &Filter{prog: prog, enabled: true}, nil
}

// Match evaluates the filter against rec. Evaluation errors and non-boolean
// results count as no match.
func (f *Filter) Match(rec model.LogRecord) bool {
	if f == nil || !f.enabled {
		return true
	}
	var ts int64
	if t, err := time.Parse(time.RFC3339Nano, rec.Timestamp); err == nil {
		ts = t.UnixMilli()
	}
	var meta any
	if len(rec.Metadata) > 0 {
		_ = json.Unmarshal(rec.Metadata, &meta)
	}
	out, _, err := f.prog.Eval(map[string]any{
		"level":    string(rec.Level),
		"message":  rec.Message,
		"service":  rec.Service,
		"project":  rec.ProjectID,
		"ts_ms":    ts,
		"metadata": meta,
		"now_ms":   time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
