package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f := NewFile(dir)

	if _, ok, err := f.GetItem("todos"); err != nil || ok {
		t.Fatalf("GetItem on empty dir: ok=%v err=%v, want ok=false err=nil", ok, err)
	}
	if err := f.SetItem("todos", `[{"id":"1"}]`); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := f.GetItem("todos")
	if err != nil || !ok {
		t.Fatalf("GetItem: ok=%v err=%v", ok, err)
	}
	if v != `[{"id":"1"}]` {
		t.Errorf("GetItem: got %q", v)
	}
	if _, err := os.Stat(filepath.Join(dir, "todos.json.tmp")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestFileRejectsBadKeys(t *testing.T) {
	f := NewFile(t.TempDir())
	for _, key := range []string{"", "../x", `a\b`} {
		if err := f.SetItem(key, "v"); err == nil {
			t.Errorf("SetItem(%q): expected error", key)
		}
	}
}

func TestFileEmptyDirUnavailable(t *testing.T) {
	f := NewFile("")
	if _, _, err := f.GetItem("todos"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetItem: got %v, want ErrUnavailable", err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	if _, ok, _ := m.GetItem("k"); ok {
		t.Fatal("expected miss")
	}
	_ = m.SetItem("k", "v")
	if v, ok, _ := m.GetItem("k"); !ok || v != "v" {
		t.Errorf("GetItem: got %q ok=%v", v, ok)
	}
}
