package intake

import (
	"path"
	"strings"

	"skillscan/internal/model"
)

var extToType = map[string]string{
	".sh":   "sh",
	".bash": "sh",
	".zsh":  "sh",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".md":   "md",
	".txt":  "txt",
	".js":   "js",
	".mjs":  "js",
	".cjs":  "js",
	".ts":   "js",
	".py":   "py",
	".env":  "env",
}

// FileTypeOf maps a relative path onto the engine's file-type tags.
// Extensionless dotfiles like .env variants are treated as env files.
func FileTypeOf(rel string) string {
	base := strings.ToLower(path.Base(rel))
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return "env"
	}
	if t, ok := extToType[strings.ToLower(path.Ext(base))]; ok {
		return t
	}
	return "txt"
}

// ComponentOf infers the functional role of a file from its path. The
// first matching heuristic wins; order goes from most to least specific.
func ComponentOf(rel string) model.Component {
	lower := strings.ToLower(rel)
	base := path.Base(lower)

	switch {
	case base == ".mcp.json" || base == "mcp.json" || strings.Contains(lower, "mcp-server"):
		return model.ComponentMCPConfig
	case strings.Contains(lower, "/hooks/") || strings.HasPrefix(lower, "hooks/") || strings.Contains(base, "hook"):
		return model.ComponentHook
	case strings.Contains(lower, "/skills/") || strings.HasPrefix(lower, "skills/") || base == "skill.md":
		return model.ComponentSkill
	case strings.Contains(lower, "/agents/") || strings.HasPrefix(lower, "agents/") ||
		base == "claude.md" || base == "agents.md" || base == "agent.md":
		return model.ComponentAgent
	case strings.HasPrefix(base, "settings") && (strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")):
		return model.ComponentSettings
	case strings.Contains(lower, "/plugins/") || strings.HasPrefix(lower, "plugins/") || strings.Contains(base, "plugin"):
		return model.ComponentPlugin
	case strings.HasSuffix(base, ".md"):
		return model.ComponentMarkdown
	default:
		return model.ComponentGeneric
	}
}
