package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.md")

	if err := AtomicWrite(path, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "first\n" {
		t.Errorf("content = %q", got)
	}

	// Overwrites replace the whole file.
	if err := AtomicWrite(path, []byte("second\n"), 0o644); err != nil {
		t.Fatalf("AtomicWrite overwrite: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "second\n" {
		t.Errorf("content after overwrite = %q", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("leftover files: %v", names)
	}
}

func TestAtomicWrite_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "out.md")
	if err := AtomicWrite(path, []byte("x"), 0o644); err == nil {
		t.Fatal("AtomicWrite into missing dir succeeded")
	}
}

func TestAtomicWrite_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	if err := AtomicWrite(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}
