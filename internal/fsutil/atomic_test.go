package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "session")
		if err := WriteFileAtomic(filename, []byte("token"), 0600); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if string(got) != "token" {
			t.Errorf("content = %q, want %q", got, "token")
		}
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "note.md")
		if err := os.WriteFile(filename, []byte("initial"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := WriteFileAtomic(filename, []byte("replaced"), 0644); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, _ := os.ReadFile(filename)
		if string(got) != "replaced" {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("Applies Permissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("unix permissions only")
		}
		filename := filepath.Join(t.TempDir(), "secret")
		if err := WriteFileAtomic(filename, []byte("s"), 0600); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(filename)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		dir := t.TempDir()
		if err := WriteFileAtomic(filepath.Join(dir, "a"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if IsTemp(e.Name()) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "missing", "x")
		if err := WriteFileAtomic(filename, []byte("x"), 0644); err == nil {
			t.Error("expected error when directory is missing")
		}
	})
}

func TestIsTemp(t *testing.T) {
	if !IsTemp(filepath.Join("a", TempFilePrefix+"123")) {
		t.Error("temp file not detected")
	}
	if IsTemp("session") {
		t.Error("regular file reported as temp")
	}
}
