package id

import "testing"

func TestNextMonotonic(t *testing.T) {
	g := NewGenerator()
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		next := g.Next()
		if string(next.Bytes()) <= string(prev.Bytes()) {
			t.Fatalf("id %d not increasing: %s <= %s", i, next, prev)
		}
		prev = next
	}
}

func TestNextClockBackwards(t *testing.T) {
	g := NewGenerator()
	orig := nowMs
	defer func() { nowMs = orig }()

	nowMs = func() int64 { return 2000 }
	a := g.Next()
	nowMs = func() int64 { return 1000 }
	b := g.Next()
	if string(b.Bytes()) <= string(a.Bytes()) {
		t.Fatalf("clock regression produced non-increasing id: %s <= %s", b, a)
	}
	if b.TimeMs() != 2000 {
		t.Fatalf("expected pinned ms 2000, got %d", b.TimeMs())
	}
}

func TestParseRoundTrip(t *testing.T) {
	g := NewGenerator()
	orig := g.Next()
	parsed, err := Parse(orig.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != orig {
		t.Fatalf("round trip mismatch: %s != %s", parsed, orig)
	}
	if _, err := Parse("zz"); err == nil {
		t.Fatalf("expected error for bad hex")
	}
	if _, err := Parse("abcd"); err == nil {
		t.Fatalf("expected error for short id")
	}
}
