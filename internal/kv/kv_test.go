package kv

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
)

func testStoreContract(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}

	for k, v := range map[string]string{
		"so_sub_1":     "1::0::1000::a",
		"so_sub_2":     "2::1000::2000::b",
		"so_sub_10":    "10::5000::6000::c",
		"so_subtitles": "movie.srt",
		"so_time":      "1500",
	} {
		if err := s.Set(k, v); err != nil {
			t.Fatalf("Set(%s) failed: %v", k, err)
		}
	}

	if v, ok, err := s.Get("so_time"); err != nil || !ok || v != "1500" {
		t.Errorf("Get(so_time) = %q, %v, %v", v, ok, err)
	}

	pattern := regexp.MustCompile(`^so_sub_\d+$`)
	keys, err := s.KeysMatching(pattern)
	if err != nil {
		t.Fatalf("KeysMatching failed: %v", err)
	}
	sort.Strings(keys)
	want := []string{"so_sub_1", "so_sub_10", "so_sub_2"}
	if len(keys) != len(want) {
		t.Fatalf("expected keys %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, keys[i], want[i])
		}
	}

	values, err := s.ValuesMatching(pattern)
	if err != nil {
		t.Fatalf("ValuesMatching failed: %v", err)
	}
	if len(values) != 3 {
		t.Errorf("expected 3 values, got %d", len(values))
	}

	if err := s.Remove("so_sub_1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove("so_sub_1"); err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if _, ok, _ := s.Get("so_sub_1"); ok {
		t.Error("so_sub_1 still present after Remove")
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "store.json")
	s, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	testStoreContract(t, s)
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	first, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	if err := first.Set("so_subtitles", "movie.srt"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := first.Set("so_at", "3"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := first.Remove("so_at"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	second, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if v, ok, _ := second.Get("so_subtitles"); !ok || v != "movie.srt" {
		t.Errorf("expected persisted filename, got %q (ok=%v)", v, ok)
	}
	if _, ok, _ := second.Get("so_at"); ok {
		t.Error("removed key came back after reopen")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the store file, found %d entries", len(entries))
	}
}

func TestOpenFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := OpenFileStore(path); err == nil {
		t.Error("expected error for corrupt store file")
	}
}
