package pebblestore

import (
	"errors"
	"testing"

	"github.com/cockroachdb/pebble"
)

func TestOpenRequiresDataDir(t *testing.T) {
	if _, err := Open(Options{}); err == nil {
		t.Fatalf("expected error for empty DataDir")
	}
}

func TestSetGetDelete(t *testing.T) {
	db, err := Open(Options{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Set([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("value: %s", got)
	}
	if err := db.Delete([]byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get([]byte("k")); !errors.Is(err, pebble.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBatchCommitAndIterate(t *testing.T) {
	db, err := Open(Options{DataDir: t.TempDir(), NoSync: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	b := db.NewBatch()
	for _, k := range []string{"a/1", "a/2", "b/1"} {
		if err := b.Set([]byte(k), []byte("x"), nil); err != nil {
			t.Fatalf("batch set: %v", err)
		}
	}
	if err := db.CommitBatch(b); err != nil {
		t.Fatalf("commit: %v", err)
	}

	it, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("a/"),
		UpperBound: []byte("a0"),
	})
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	defer it.Close()
	n := 0
	for it.First(); it.Valid(); it.Next() {
		n++
	}
	if n != 2 {
		t.Fatalf("prefix scan count: %d", n)
	}
}
