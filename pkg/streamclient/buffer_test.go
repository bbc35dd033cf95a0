package streamclient

import (
	"fmt"
	"testing"

	"github.com/logwell/logwell/internal/model"
)

func mkRecs(msgs ...string) []model.LogRecord {
	out := make([]model.LogRecord, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, model.LogRecord{Message: m})
	}
	return out
}

func msgs(recs []model.LogRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Message)
	}
	return out
}

func assertMsgs(t *testing.T, b *RingBuffer, want ...string) {
	t.Helper()
	got := msgs(b.Logs())
	if len(got) != len(want) {
		t.Fatalf("buffer: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("buffer: got %v want %v", got, want)
		}
	}
}

func TestAddBatchTrimsTail(t *testing.T) {
	b := NewRingBuffer(3)
	b.AddBatch(mkRecs("old1", "old2", "old3"))
	b.AddBatch(mkRecs("new1", "new2"))
	assertMsgs(t, b, "new1", "new2", "old1")
}

func TestAddBatchLargerThanMax(t *testing.T) {
	b := NewRingBuffer(3)
	b.AddBatch(mkRecs("old"))
	b.AddBatch(mkRecs("a", "b", "c", "d", "e"))
	assertMsgs(t, b, "a", "b", "c")
}

func TestAddBatchExactlyMax(t *testing.T) {
	b := NewRingBuffer(3)
	b.AddBatch(mkRecs("old"))
	b.AddBatch(mkRecs("a", "b", "c"))
	assertMsgs(t, b, "a", "b", "c")
}

func TestAddBatchUnderfilled(t *testing.T) {
	b := NewRingBuffer(10)
	b.AddBatch(mkRecs("b"))
	b.AddBatch(mkRecs("a"))
	assertMsgs(t, b, "a", "b")
	if b.Len() != 2 {
		t.Fatalf("len: %d", b.Len())
	}
}

func TestAddBatchEmptyNoop(t *testing.T) {
	b := NewRingBuffer(3)
	b.AddBatch(mkRecs("x"))
	b.AddBatch(nil)
	assertMsgs(t, b, "x")
}

func TestBoundNeverExceeded(t *testing.T) {
	b := NewRingBuffer(5)
	for i := 0; i < 50; i++ {
		b.AddBatch(mkRecs(fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i)))
		if b.Len() > 5 {
			t.Fatalf("bound exceeded at %d: %d", i, b.Len())
		}
	}
}

func TestClear(t *testing.T) {
	b := NewRingBuffer(3)
	b.AddBatch(mkRecs("x"))
	b.Clear()
	if b.Len() != 0 {
		t.Fatalf("len after clear: %d", b.Len())
	}
}

func TestSetScope(t *testing.T) {
	b := NewRingBuffer(3)
	b.SetScope("project-a")
	b.AddBatch(mkRecs("x"))

	// Same key: no-op, data survives.
	b.SetScope("project-a")
	if b.Len() != 1 {
		t.Fatalf("same scope cleared buffer")
	}

	// Changed key: buffer resets.
	b.SetScope("project-b")
	if b.Len() != 0 {
		t.Fatalf("scope change kept %d records", b.Len())
	}
}
