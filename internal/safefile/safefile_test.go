package safefile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestWriteFileAtomic_CreatesParentAndWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "reports", "scan.json")

	if err := WriteFileAtomic(target, []byte(`{"ok":true}`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	b, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(b) != `{"ok":true}` {
		t.Errorf("content mismatch: %q", b)
	}
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")
	if err := WriteFileAtomic(target, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(target)
	if string(b) != "second" {
		t.Errorf("expected overwrite, got %q", b)
	}
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFileAtomic(filepath.Join(dir, "out.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".skillscan-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteFileAtomic_RefusesSymlinkTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks not reliable on windows")
	}
	dir := t.TempDir()
	real := filepath.Join(dir, "real.txt")
	if err := os.WriteFile(real, []byte("orig"), 0o600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	err := WriteFileAtomic(link, []byte("evil"), 0o644)
	if err == nil || !strings.Contains(err.Error(), "symlink") {
		t.Fatalf("expected symlink refusal, got %v", err)
	}
	b, _ := os.ReadFile(real)
	if string(b) != "orig" {
		t.Errorf("symlink target was modified: %q", b)
	}
}

func TestWriteFileAtomic_RefusesDirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	err := WriteFileAtomic(dir, []byte("x"), 0o644)
	if err == nil || !strings.Contains(err.Error(), "directory") {
		t.Fatalf("expected directory refusal, got %v", err)
	}
}

func TestWriteFileAtomic_EmptyPath(t *testing.T) {
	if err := WriteFileAtomic("  ", []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b")

	abs, err := EnsureDir(target, 0o700)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	// Idempotent.
	if _, err := EnsureDir(target, 0o700); err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
}

func TestEnsureDir_RefusesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks not reliable on windows")
	}
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}
	if _, err := EnsureDir(link, 0o700); err == nil {
		t.Fatal("expected symlink refusal")
	}
}
