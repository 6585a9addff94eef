package session

import "testing"

func TestTempDataRoundTrip(t *testing.T) {
	m := NewManager()

	if _, ok := m.GetTemp(1, "movie_id"); ok {
		t.Fatal("empty manager should miss")
	}

	m.SetTemp(1, "movie_id", int64(42))
	m.SetTemp(1, "title", "The Matrix")
	m.SetTemp(2, "movie_id", int64(7))

	if got, ok := m.GetTempInt64(1, "movie_id"); !ok || got != 42 {
		t.Fatalf("GetTempInt64 = %d, %v", got, ok)
	}
	if got, ok := m.GetTempString(1, "title"); !ok || got != "The Matrix" {
		t.Fatalf("GetTempString = %q, %v", got, ok)
	}
	if got, _ := m.GetTempInt64(2, "movie_id"); got != 7 {
		t.Fatalf("user 2 movie_id = %d", got)
	}

	// Wrong type assertion misses.
	if _, ok := m.GetTempInt64(1, "title"); ok {
		t.Fatal("string value should not assert as int64")
	}

	m.ClearTemp(1, "movie_id")
	if _, ok := m.GetTemp(1, "movie_id"); ok {
		t.Fatal("cleared key should miss")
	}
	if _, ok := m.GetTemp(1, "title"); !ok {
		t.Fatal("other keys should survive ClearTemp")
	}

	m.Clear(1)
	if _, ok := m.GetTemp(1, "title"); ok {
		t.Fatal("Clear should drop the session")
	}
}
