package intake

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover_BasicWalk(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "hooks/pre-commit.sh", "#!/bin/sh\necho ok\n")
	writeFixture(t, root, "skills/deploy/SKILL.md", "# Deploy\n")
	writeFixture(t, root, "settings.json", "{}\n")

	res, err := Discover(Options{Root: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(res.Files))
	}
	if !sort.SliceIsSorted(res.Files, func(i, j int) bool { return res.Files[i].RelPath < res.Files[j].RelPath }) {
		t.Error("files not sorted by relative path")
	}
	for _, f := range res.Files {
		if f.Content == "" {
			t.Errorf("content not materialized for %s", f.RelPath)
		}
		if f.Type == "" || f.Component == "" {
			t.Errorf("classification missing for %s", f.RelPath)
		}
		if filepath.IsAbs(f.RelPath) {
			t.Errorf("rel path is absolute: %s", f.RelPath)
		}
	}
}

func TestDiscover_SkipsNoiseDirs(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, ".git/config", "[core]\n")
	writeFixture(t, root, "node_modules/pkg/index.js", "x\n")
	writeFixture(t, root, ".skillscan/suppressions.yaml", "suppressions: []\n")
	writeFixture(t, root, "keep.md", "# keep\n")

	res, err := Discover(Options{Root: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].RelPath != "keep.md" {
		t.Fatalf("expected only keep.md, got %v", relPaths(res))
	}
}

func TestDiscover_SkipsBinaryAndMediaFiles(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "logo.png", "fake image")
	writeFixture(t, root, "data.bin", "abc\x00def")
	writeFixture(t, root, "ok.txt", "text\n")

	res, err := Discover(Options{Root: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].RelPath != "ok.txt" {
		t.Fatalf("expected only ok.txt, got %v", relPaths(res))
	}
	if res.SkippedFiles != 2 {
		t.Errorf("expected 2 skipped files, got %d", res.SkippedFiles)
	}
}

func TestDiscover_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks not reliable on windows")
	}
	root := t.TempDir()
	writeFixture(t, root, "real.md", "# real\n")
	if err := os.Symlink(filepath.Join(root, "real.md"), filepath.Join(root, "link.md")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	res, err := Discover(Options{Root: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0].RelPath != "real.md" {
		t.Fatalf("expected only real.md, got %v", relPaths(res))
	}
}

func TestDiscover_MaxFilesBudget(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.md", "a\n")
	writeFixture(t, root, "b.md", "b\n")
	writeFixture(t, root, "c.md", "c\n")

	res, err := Discover(Options{Root: root, MaxFiles: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected budget of 2 files, got %d", len(res.Files))
	}
	if res.SkippedFiles != 1 {
		t.Errorf("expected 1 skipped file, got %d", res.SkippedFiles)
	}
}

func TestDiscover_RootValidation(t *testing.T) {
	if _, err := Discover(Options{Root: ""}); err == nil {
		t.Error("empty root should error")
	}
	if _, err := Discover(Options{Root: "/nonexistent/skillscan-test"}); err == nil {
		t.Error("missing root should error")
	}

	root := t.TempDir()
	writeFixture(t, root, "f.txt", "x\n")
	if _, err := Discover(Options{Root: filepath.Join(root, "f.txt")}); err == nil {
		t.Error("file root should error")
	}
}

func relPaths(res Result) []string {
	out := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		out = append(out, f.RelPath)
	}
	return out
}
