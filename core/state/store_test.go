package state

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "data.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	s := newTestStore(t)
	if got := s.UpdateID(); got != 0 {
		t.Fatalf("UpdateID = %d, want 0", got)
	}
}

func TestUpdateIDRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.SetUpdateID(42)
	if _, err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened := NewStore(s.Path())
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reopened.UpdateID(); got != 42 {
		t.Fatalf("UpdateID after reload = %d, want 42", got)
	}
}

func TestExtraKeysSurviveReload(t *testing.T) {
	s := newTestStore(t)
	s.SetUpdateID(7)
	s.SetString("feedwatch:last:news", "guid-123")
	if err := s.Set("counter", 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened := NewStore(s.Path())
	if err := reopened.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if v, ok := reopened.GetString("feedwatch:last:news"); !ok || v != "guid-123" {
		t.Fatalf("GetString = %q, %v", v, ok)
	}
	var counter int
	if ok, err := reopened.Get("counter", &counter); !ok || err != nil || counter != 3 {
		t.Fatalf("Get counter = %d, ok=%v, err=%v", counter, ok, err)
	}
	if got := reopened.UpdateID(); got != 7 {
		t.Fatalf("UpdateID = %d, want 7", got)
	}
}

func TestFlushSkipsUnchangedDocument(t *testing.T) {
	s := newTestStore(t)
	s.SetUpdateID(10)

	wrote, err := s.Flush()
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !wrote {
		t.Fatal("first flush should write")
	}

	wrote, err = s.Flush()
	if err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if wrote {
		t.Fatal("second flush of identical document should not write")
	}

	s.SetUpdateID(11)
	wrote, err = s.Flush()
	if err != nil {
		t.Fatalf("third flush: %v", err)
	}
	if !wrote {
		t.Fatal("flush after mutation should write")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := NewStore(path)
	if err := s.Load(); err == nil {
		t.Fatal("expected error for malformed state file")
	}
}
