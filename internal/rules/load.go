package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of a custom rule file. A file may carry a
// single rule or a list under the "rules" key.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadDir reads every *.yaml / *.yml rule file in dir, validates each rule,
// and returns them sorted by ID. A missing directory yields an empty
// catalog. Any malformed rule aborts the load (fail fast at catalog time).
func LoadDir(dir string) ([]Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rules dir %s: %w", dir, err)
	}

	var out []Rule
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		loaded, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, loaded...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadFile parses one rule file. Symlinked rule files are refused.
func LoadFile(path string) ([]Rule, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("refusing symlinked rule file: %s", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	if len(rf.Rules) == 0 {
		var single Rule
		if err := yaml.Unmarshal(b, &single); err == nil && strings.TrimSpace(single.ID) != "" {
			rf.Rules = []Rule{single}
		}
	}

	out := make([]Rule, 0, len(rf.Rules))
	for _, rule := range rf.Rules {
		rule = Normalize(rule)
		if err := Validate(rule); err != nil {
			return nil, fmt.Errorf("invalid rule %s in %s: %w", rule.ID, path, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

// Catalog merges built-in and custom rules. Custom rules with an ID that
// collides with a built-in replace the built-in, so operators can tighten
// or disable shipped rules without editing the binary.
func Catalog(customDir string, includeBuiltin bool) ([]Rule, error) {
	var out []Rule
	index := map[string]int{}

	if includeBuiltin {
		for _, rule := range Builtins() {
			index[rule.ID] = len(out)
			out = append(out, rule)
		}
	}

	if strings.TrimSpace(customDir) != "" {
		custom, err := LoadDir(customDir)
		if err != nil {
			return nil, err
		}
		for _, rule := range custom {
			rule.Source = SourceCustom
			if at, ok := index[rule.ID]; ok {
				out[at] = rule
				continue
			}
			index[rule.ID] = len(out)
			out = append(out, rule)
		}
	}

	return out, nil
}
