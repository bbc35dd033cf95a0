package logstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/klauspost/compress/s2"

	"github.com/logwell/logwell/internal/model"
	pebblestore "github.com/logwell/logwell/internal/storage/pebble"
	"github.com/logwell/logwell/pkg/id"
)

// DefaultQueryLimit is used when a query asks for zero or negative items.
const DefaultQueryLimit = 100

// MaxQueryLimit caps a single history page.
const MaxQueryLimit = 1000

// Store persists log records per project in time order.
type Store struct {
	db *pebblestore.DB
}

// New wraps the given database.
func New(db *pebblestore.DB) *Store {
	return &Store{db: db}
}

// Append writes the records in one atomic batch. Records must already carry
// their assigned IDs.
func (s *Store) Append(recs ...model.LogRecord) error {
	if len(recs) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, rec := range recs {
		rid, err := id.Parse(rec.ID)
		if err != nil {
			return fmt.Errorf("logstore: record id %q: %w", rec.ID, err)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("logstore: encode record %s: %w", rec.ID, err)
		}
		if err := b.Set(recordKey(rec.ProjectID, rid), s2.Encode(nil, raw), nil); err != nil {
			return err
		}
	}
	return s.db.CommitBatch(b)
}

// Query returns up to limit records for the project, newest first. A
// non-empty cursor (returned by a previous call) continues strictly after
// the last record of the previous page. The returned cursor is empty when
// no older records remain.
func (s *Store) Query(project string, limit int, cursor string) ([]model.LogRecord, string, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	lower, upper := projectBounds(project)
	it, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, "", err
	}
	defer it.Close()

	var ok bool
	if cursor == "" {
		ok = it.Last()
	} else {
		before, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		ok = it.SeekLT(recordKey(project, before))
	}

	out := make([]model.LogRecord, 0, limit)
	for ; ok && len(out) < limit; ok = it.Prev() {
		raw, err := s2.Decode(nil, it.Value())
		if err != nil {
			return nil, "", fmt.Errorf("logstore: decompress %q: %w", it.Key(), err)
		}
		var rec model.LogRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, "", fmt.Errorf("logstore: decode %q: %w", it.Key(), err)
		}
		out = append(out, rec)
	}

	// After the loop the iterator sits one record past the page; if that
	// position is valid there is an older page to fetch.
	next := ""
	if len(out) == limit && ok {
		last, err := id.Parse(out[len(out)-1].ID)
		if err != nil {
			return nil, "", fmt.Errorf("logstore: stored record id %q: %w", out[len(out)-1].ID, err)
		}
		next = encodeCursor(last)
	}
	return out, next, nil
}

func encodeCursor(rid id.ID) string {
	return base64.RawURLEncoding.EncodeToString(rid.Bytes())
}

func decodeCursor(cursor string) (id.ID, error) {
	var rid id.ID
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(b) != 16 {
		return rid, fmt.Errorf("logstore: invalid cursor %q", cursor)
	}
	copy(rid[:], b)
	return rid, nil
}
