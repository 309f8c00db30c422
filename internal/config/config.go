package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config mirrors the common scan flag names. Nil/zero values mean "not
// set"; CLI flags take final precedence over both config layers.
type Config struct {
	Workers      *int   `yaml:"workers,omitempty"`
	ContextLines *int   `yaml:"context_lines,omitempty"`
	MaxFiles     *int   `yaml:"max_files,omitempty"`
	MaxBytes     *int64 `yaml:"max_bytes,omitempty"`
	RulesDir     string `yaml:"rules_dir,omitempty"`
	NoBuiltin    *bool  `yaml:"no_builtin_rules,omitempty"`
	FailOn       string `yaml:"fail_on,omitempty"`
	Format       string `yaml:"format,omitempty"`
	LogLevel     string `yaml:"log_level,omitempty"`
	TUI          *bool  `yaml:"tui,omitempty"`
}

// Load reads config from layered sources:
//  1. ~/.skillscan/config.yaml (global)
//  2. ./.skillscan/config.yaml (repo-local, takes precedence)
//
// Missing files are silently ignored.
func Load() (Config, error) {
	var merged Config

	home, _ := os.UserHomeDir()
	if home != "" {
		global, err := loadFile(filepath.Join(home, ".skillscan", "config.yaml"))
		if err != nil {
			return Config{}, err
		}
		merged = merge(merged, global)
	}

	cwd, _ := os.Getwd()
	if cwd != "" {
		local, err := loadFile(filepath.Join(cwd, ".skillscan", "config.yaml"))
		if err != nil {
			return Config{}, err
		}
		merged = merge(merged, local)
	}

	return merged, nil
}

func loadFile(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// merge overlays b on a; set fields in b win.
func merge(a, b Config) Config {
	if b.Workers != nil {
		a.Workers = b.Workers
	}
	if b.ContextLines != nil {
		a.ContextLines = b.ContextLines
	}
	if b.MaxFiles != nil {
		a.MaxFiles = b.MaxFiles
	}
	if b.MaxBytes != nil {
		a.MaxBytes = b.MaxBytes
	}
	if b.RulesDir != "" {
		a.RulesDir = b.RulesDir
	}
	if b.NoBuiltin != nil {
		a.NoBuiltin = b.NoBuiltin
	}
	if b.FailOn != "" {
		a.FailOn = b.FailOn
	}
	if b.Format != "" {
		a.Format = b.Format
	}
	if b.LogLevel != "" {
		a.LogLevel = b.LogLevel
	}
	if b.TUI != nil {
		a.TUI = b.TUI
	}
	return a
}
