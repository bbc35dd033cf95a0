package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/logwell/logwell/internal/config"
	"github.com/logwell/logwell/internal/hub"
	"github.com/logwell/logwell/internal/logstore"
	"github.com/logwell/logwell/internal/model"
	pebblestore "github.com/logwell/logwell/internal/storage/pebble"
	"github.com/logwell/logwell/pkg/id"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	NoSync  bool
	Config  cfgpkg.Config
}

// Runtime wires storage, the hub, and config for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	store  *logstore.Store
	hub    *hub.Hub
	ids    *id.Generator
	config cfgpkg.Config
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, NoSync: opts.NoSync})
	if err != nil {
		return nil, err
	}
	return &Runtime{
		db:     db,
		store:  logstore.New(db),
		hub:    hub.New(),
		ids:    id.NewGenerator(),
		config: opts.Config,
	}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage probe.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Ingest assigns IDs and timestamps where missing, persists the records, and
// fans them out to live subscribers. Records are published in slice order.
func (r *Runtime) Ingest(recs []model.LogRecord) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = r.ids.Next().String()
		}
		if recs[i].Timestamp == "" {
			recs[i].Timestamp = now
		}
	}
	if err := r.store.Append(recs...); err != nil {
		return err
	}
	for _, rec := range recs {
		r.hub.Publish(rec)
	}
	return nil
}

// Hub returns the live fan-out hub.
func (r *Runtime) Hub() *hub.Hub { return r.hub }

// Store returns the history store.
func (r *Runtime) Store() *logstore.Store { return r.store }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
