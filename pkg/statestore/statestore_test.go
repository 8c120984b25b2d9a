package statestore

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("mvp/snapshot", []byte(`{"project_id":"p1"}`)); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := s.Get("mvp/snapshot")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != `{"project_id":"p1"}` {
		t.Errorf("Unexpected value %q", got)
	}
}

func TestGet_MissingKeyReturnsNil(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Get("absent")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing key, got %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	got, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected key deleted, got %q", got)
	}

	// Deleting again is a no-op
	if err := s.Delete("k"); err != nil {
		t.Errorf("Second Delete() failed: %v", err)
	}
}

func TestList_PrefixFilter(t *testing.T) {
	s := openTestStore(t)

	entries := map[string]string{
		"ui/dismissals":  "a",
		"ui/theme":       "b",
		"mvp/snapshot":   "c",
		"mvp/project-id": "d",
	}
	for k, v := range entries {
		if err := s.Put(k, []byte(v)); err != nil {
			t.Fatalf("Put(%q) failed: %v", k, err)
		}
	}

	ui, err := s.List("ui/")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(ui) != 2 {
		t.Errorf("Expected 2 ui entries, got %d: %v", len(ui), ui)
	}
	if string(ui["ui/theme"]) != "b" {
		t.Errorf("Unexpected value for ui/theme: %q", ui["ui/theme"])
	}

	all, err := s.List("")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != len(entries) {
		t.Errorf("Expected %d entries, got %d", len(entries), len(all))
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s2.Close()

	got, err := s2.Get("k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Expected persisted value, got %q", got)
	}
}
