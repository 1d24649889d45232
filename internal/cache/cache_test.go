package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/docquery-cli/internal/cache"
	"github.com/KaramelBytes/docquery-cli/internal/hashing"
)

func openCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	return c
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"plain", "Hello world"},
		{"empty", ""},
		{"control chars", "line1\nline2\ttabbed\x00zero"},
		{"long", string(make([]byte, 1<<20))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := openCache(t)
			digest := hashing.SumBytes([]byte(tc.text))
			meta := cache.Meta{DisplayName: "doc.pdf", WordCount: 2, CharCount: len(tc.text)}
			if err := c.Store(digest, tc.text, meta); err != nil {
				t.Fatalf("store: %v", err)
			}
			got, ok := c.Lookup(digest)
			if !ok {
				t.Fatalf("expected hit after store")
			}
			if got.Text != tc.text {
				t.Fatalf("text mismatch: got %d bytes, want %d", len(got.Text), len(tc.text))
			}
			if got.Meta != meta {
				t.Fatalf("meta mismatch: %+v vs %+v", got.Meta, meta)
			}
		})
	}
}

func TestMissThenHit(t *testing.T) {
	c := openCache(t)
	digest := hashing.SumBytes([]byte("unseen"))
	if _, ok := c.Lookup(digest); ok {
		t.Fatalf("expected miss on unseen digest")
	}
	before := c.Stats().EntryCount
	if err := c.Store(digest, "unseen", cache.Meta{DisplayName: "a.pdf", WordCount: 1, CharCount: 6}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok := c.Lookup(digest); !ok {
		t.Fatalf("expected hit after store")
	}
	if got := c.Stats().EntryCount; got != before+1 {
		t.Fatalf("entry count: got %d, want %d", got, before+1)
	}
}

func TestDanglingEntrySelfHeals(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	digest := hashing.SumBytes([]byte("doomed"))
	if err := c.Store(digest, "doomed", cache.Meta{DisplayName: "b.pdf"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	// Delete the blob behind the cache's back.
	if err := os.Remove(filepath.Join(dir, digest+".txt")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Lookup(digest); ok {
		t.Fatalf("expected miss for dangling entry")
	}
	if got := c.Stats().EntryCount; got != 0 {
		t.Fatalf("expected dangling entry to be dropped, entry count %d", got)
	}
	// The repair must be durable across a reopen.
	c2, err := cache.Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	if _, ok := c2.Lookup(digest); ok {
		t.Fatalf("dangling entry survived reopen")
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	digest := hashing.SumBytes([]byte("persisted"))
	meta := cache.Meta{DisplayName: "c.pdf", WordCount: 1, CharCount: 9}
	if err := c.Store(digest, "persisted", meta); err != nil {
		t.Fatalf("store: %v", err)
	}
	c2, err := cache.Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	got, ok := c2.Lookup(digest)
	if !ok {
		t.Fatalf("expected hit after reopen")
	}
	if got.Text != "persisted" || got.Meta != meta {
		t.Fatalf("round trip after reopen mismatch: %+v", got)
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	d1 := hashing.SumBytes([]byte("one"))
	d2 := hashing.SumBytes([]byte("two"))
	for _, d := range []string{d1, d2} {
		if err := c.Store(d, "content", cache.Meta{DisplayName: "x.pdf"}); err != nil {
			t.Fatalf("store: %v", err)
		}
	}
	// One blob already missing must not fail the clear.
	if err := os.Remove(filepath.Join(dir, d1+".txt")); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	st := c.Stats()
	if st.EntryCount != 0 || st.TotalBytes != 0 {
		t.Fatalf("expected empty stats after clear, got %+v", st)
	}
	if _, ok := c.Lookup(d2); ok {
		t.Fatalf("expected miss after clear")
	}
}

func TestStatsUsesRealBlobSizes(t *testing.T) {
	dir := t.TempDir()
	c, err := cache.Open(dir, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	digest := hashing.SumBytes([]byte("sized"))
	if err := c.Store(digest, "12345", cache.Meta{DisplayName: "d.pdf", CharCount: 9999}); err != nil {
		t.Fatalf("store: %v", err)
	}
	// Tamper with the blob externally; stats must reflect disk, not metadata.
	if err := os.WriteFile(filepath.Join(dir, digest+".txt"), []byte("1234567890"), 0o644); err != nil {
		t.Fatal(err)
	}
	st := c.Stats()
	if st.TotalBytes != 10 {
		t.Fatalf("expected 10 bytes from disk, got %d", st.TotalBytes)
	}
}
