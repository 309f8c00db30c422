package intake

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"skillscan/internal/model"
)

// Options bounds a discovery walk.
type Options struct {
	Root     string
	MaxFiles int
	MaxBytes int64
	Logger   hclog.Logger
}

// Result is the discovered file set plus walk statistics. Files come back
// sorted by relative path so downstream work is deterministic.
type Result struct {
	Root          string
	Files         []model.DiscoveredFile
	SkippedFiles  int
	SkippedBytes  int64
	IncludedBytes int64
	Errors        []model.FileError
}

const (
	DefaultMaxFiles = 20000
	DefaultMaxBytes = 250 * 1024 * 1024

	maxSingleFileBytes = 2 * 1024 * 1024
)

var skipDirNames = map[string]struct{}{
	".git": {}, ".skillscan": {}, "node_modules": {}, "vendor": {}, "dist": {},
	"build": {}, ".next": {}, "target": {}, "coverage": {}, "bin": {},
	".aws": {}, ".ssh": {}, ".gnupg": {},
}

var skipFileExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".pdf": {}, ".zip": {},
	".gz": {}, ".tar": {}, ".tgz": {}, ".mp3": {}, ".wav": {}, ".mp4": {},
	".mov": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".exe": {}, ".dll": {},
	".so": {}, ".dylib": {}, ".class": {}, ".jar": {}, ".wasm": {},
}

var skipFileNames = map[string]struct{}{
	".DS_Store": {},
}

// Discover walks root and returns every scannable text artifact with its
// content materialized. Unreadable files are reported as per-file errors,
// never as a walk failure.
func Discover(opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if strings.TrimSpace(opts.Root) == "" {
		return Result{}, errors.New("root path is required")
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}

	rootAbs, err := filepath.Abs(opts.Root)
	if err != nil {
		return Result{}, fmt.Errorf("resolve root path: %w", err)
	}
	st, err := os.Stat(rootAbs)
	if err != nil {
		return Result{}, fmt.Errorf("stat root path: %w", err)
	}
	if !st.IsDir() {
		return Result{}, fmt.Errorf("root path is not a directory: %s", rootAbs)
	}

	res := Result{Root: rootAbs}

	walkErr := filepath.WalkDir(rootAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			res.Errors = append(res.Errors, model.FileError{Path: path, Err: err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if _, skip := skipDirNames[name]; skip && path != rootAbs {
				return filepath.SkipDir
			}
			return nil
		}
		if _, skip := skipFileNames[name]; skip {
			res.SkippedFiles++
			return nil
		}
		if _, skip := skipFileExts[strings.ToLower(filepath.Ext(name))]; skip {
			res.SkippedFiles++
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			res.SkippedFiles++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			res.Errors = append(res.Errors, model.FileError{Path: path, Err: err.Error()})
			return nil
		}
		if info.Size() > maxSingleFileBytes {
			res.SkippedFiles++
			res.SkippedBytes += info.Size()
			log.Debug("skipping oversized file", "path", path, "size", info.Size())
			return nil
		}
		if len(res.Files) >= opts.MaxFiles || res.IncludedBytes+info.Size() > opts.MaxBytes {
			res.SkippedFiles++
			res.SkippedBytes += info.Size()
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			res.Errors = append(res.Errors, model.FileError{Path: path, Err: err.Error()})
			return nil
		}
		if looksBinary(content) {
			res.SkippedFiles++
			res.SkippedBytes += info.Size()
			return nil
		}

		rel, err := filepath.Rel(rootAbs, path)
		if err != nil {
			rel = name
		}
		rel = filepath.ToSlash(rel)

		res.Files = append(res.Files, model.DiscoveredFile{
			Path:      path,
			RelPath:   rel,
			Type:      FileTypeOf(rel),
			Component: ComponentOf(rel),
			Size:      info.Size(),
			ModTime:   info.ModTime().UTC(),
			Content:   string(content),
		})
		res.IncludedBytes += info.Size()
		return nil
	})
	if walkErr != nil {
		return Result{}, fmt.Errorf("walk %s: %w", rootAbs, walkErr)
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].RelPath < res.Files[j].RelPath })
	log.Debug("discovery complete",
		"files", len(res.Files), "skipped", res.SkippedFiles, "bytes", res.IncludedBytes)
	return res, nil
}

// looksBinary applies the NUL-byte heuristic on the first 8 KiB.
func looksBinary(content []byte) bool {
	probe := content
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return false
}
