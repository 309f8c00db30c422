package rules

import "skillscan/internal/model"

// Builtins returns the shipped rule catalog. Rules are ordered by ID and
// immutable once loaded; the engine shares them read-only across all
// matching work in a scan.
func Builtins() []Rule {
	defs := []Rule{
		{
			ID:       "CRED-001",
			Name:     "Hardcoded credential assignment",
			Category: model.CategoryCredentials,
			Severity: model.SeverityCritical,
			Description: "A literal secret, token, or password is assigned directly in a " +
				"configuration or script file. Credential exposure in agent artifacts " +
				"leaks through every context the agent is given.",
			Patterns: []string{
				`(?:api[_-]?key|secret|token|password|passwd)\s*[:=]\s*["'][A-Za-z0-9._~+/=-]{8,}["']`,
				`\b(?:AKIA|ASIA|AGPA|AIDA|ANPA|ANVA|AROA)[0-9A-Z]{16}\b`,
				`\bgh[pousr]_[A-Za-z0-9]{20,}\b`,
				`-----BEGIN [A-Z ]*PRIVATE KEY-----`,
			},
			FileTypes: []string{"sh", "json", "yaml", "toml", "env", "md", "js", "py"},
			ExcludePatterns: []string{
				`(?:os\.environ|process\.env|getenv|\$\{?[A-Z_]{3,}\}?)`,
				`(?:example|placeholder|changeme|your[_-]?key|xxx+|<[^>]+>)`,
			},
			ExcludeContext: []string{
				`(?:test fixture|sample config|documentation example)`,
			},
			Remediation: "Move the secret to an environment variable or secret manager and rotate the exposed value.",
			Confidence:  0.9,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
		{
			ID:       "CRED-002",
			Name:     "Environment secret read paired with outbound call",
			Category: model.CategoryCredentials,
			Severity: model.SeverityHigh,
			Description: "Credential exposure chain: one file reads secrets from the " +
				"environment while a related file performs an outbound network request.",
			Patterns: []string{
				`(?:process\.env|os\.environ|getenv)\s*[.\[(]\s*["']?[A-Z_]*(?:SECRET|TOKEN|KEY|PASSWORD)`,
			},
			FileTypes:   []string{"sh", "js", "py", "json", "yaml", "md"},
			Remediation: "Scope secret access to the single component that needs it and audit where the value travels.",
			Confidence:  0.6,
			Correlation: []CorrelationSubRule{
				{
					ID:          "env-secret-to-network",
					Description: "Credential read in one file combined with network egress in a nearby file",
					FilePatterns: []string{
						"hook", "skill", "agent", "script", "tool",
					},
					Patterns: []string{
						`(?:process\.env|os\.environ|getenv)\s*[.\[(]\s*["']?[A-Z_]*(?:SECRET|TOKEN|KEY|PASSWORD)`,
						`(?:curl|wget|fetch\(|requests\.(?:get|post)|http[s]?://)`,
					},
					MaxDistance: 2,
				},
			},
			Source:  SourceBuiltin,
			Enabled: true,
		},
		{
			ID:       "INJ-001",
			Name:     "Prompt injection override language",
			Category: model.CategoryInjection,
			Severity: model.SeverityHigh,
			Description: "Instruction-override or jailbreak phrasing embedded in agent " +
				"instructions, skill descriptions, or markdown. These phrases steer a " +
				"model away from its configured policy.",
			Patterns: []string{
				`ignore\s+(?:all\s+)?previous\s+instructions`,
				`(?:disregard|forget|bypass)\s+(?:your|the|all)?\s*(?:system\s+prompt|safety|guardrails?|polic(?:y|ies)|instructions)`,
				`\bjailbreak\b`,
				`you\s+are\s+no\s+longer\s+(?:an?\s+)?(?:ai|assistant|claude)`,
			},
			FileTypes:  []string{"md", "txt", "json", "yaml"},
			Components: []string{"skill", "agent", "markdown", "settings", "plugin", "generic"},
			ExcludePatterns: []string{
				`(?:never|don't|do not|avoid|reject|refuse)[^.]{0,40}(?:jailbreak|ignore previous)`,
			},
			ExcludeContext: []string{
				`security\s+scanner`,
				`detection\s+rule`,
			},
			ExcludeContextWholeFile: true,
			Remediation:             "Remove override language from agent-facing text or isolate it behind explicit policy guards.",
			Confidence:              0.75,
			Source:                  SourceBuiltin,
			Enabled:                 true,
		},
		{
			ID:       "INJ-002",
			Name:     "Hidden instruction block",
			Category: model.CategoryInjection,
			Severity: model.SeverityMedium,
			Description: "Instructions concealed in HTML comments or zero-width text " +
				"inside markdown the agent will read but a human reviewer will not see.",
			Patterns: []string{
				`<!--[^>]*(?:instruction|ignore|execute|secret|do not tell)[^>]*-->`,
				`[\x{200B}\x{200C}\x{200D}\x{2060}\x{FEFF}]{3,}`,
			},
			FileTypes:   []string{"md", "txt"},
			Remediation: "Strip hidden comment blocks and zero-width characters from instruction files.",
			Confidence:  0.7,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
		{
			ID:       "EXF-001",
			Name:     "Data exfiltration primitive",
			Category: model.CategoryExfiltration,
			Severity: model.SeverityHigh,
			Description: "A script posts local data to an external endpoint. In hooks " +
				"this runs automatically on agent lifecycle events.",
			Patterns: []string{
				`curl\s+[^\n]*-d\b`,
				`curl\s+[^\n]*--data\b`,
				`wget\s+[^\n]*--post-(?:data|file)\b`,
				`\bnc\s+(?:-\w+\s+)*\d{1,3}(?:\.\d{1,3}){3}\s+\d+`,
			},
			FileTypes:  []string{"sh", "js", "py"},
			Components: []string{"hook", "skill", "plugin", "generic"},
			ExcludePatterns: []string{
				`(?:localhost|127\.0\.0\.1|0\.0\.0\.0)`,
			},
			Remediation: "Remove outbound data posts from automated hooks or pin them to an allowlisted internal endpoint.",
			Confidence:  0.8,
			Correlation: []CorrelationSubRule{
				{
					ID:          "read-then-post",
					Description: "Data exfiltration chain: sensitive file read in one file and outbound post in a related file",
					FilePatterns: []string{
						"hook", "skill", "agent", "script",
					},
					Patterns: []string{
						`(?:cat|read|open)\s*[^\n]*(?:\.env|credentials|\.ssh|secret)`,
						`(?:curl|wget)\s+[^\n]*(?:-d|--data|--post-data)\b`,
					},
					MaxDistance: 2,
				},
			},
			Source:  SourceBuiltin,
			Enabled: true,
		},
		{
			ID:       "SUP-001",
			Name:     "Unpinned remote code execution",
			Category: model.CategorySupplyChain,
			Severity: model.SeverityCritical,
			Description: "A script pipes a remote download straight into a shell or " +
				"installs packages from an unpinned source, letting upstream changes " +
				"execute here unreviewed.",
			Patterns: []string{
				`(?:curl|wget)\s+[^\n|]*\|\s*(?:ba)?sh\b`,
				`pip\s+install\s+[^\n]*--index-url\s+http://`,
				`npm\s+install\s+[^\n]*(?:git\+http|http://)`,
			},
			FileTypes:   []string{"sh", "md", "yaml", "json"},
			Remediation: "Download to a file, verify a checksum or signature, then execute a pinned version.",
			Confidence:  0.85,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
		{
			ID:       "PERM-001",
			Name:     "Over-broad permission grant",
			Category: model.CategoryPermissions,
			Severity: model.SeverityHigh,
			Description: "Settings grant wildcard tool access or disable permission " +
				"prompts, removing the human checkpoint on dangerous operations.",
			Patterns: []string{
				`"allow(?:ed)?_?tools"\s*:\s*\[\s*"\*"\s*\]`,
				`"bypass[_-]?permissions?"\s*:\s*true`,
				`"dangerously[A-Za-z]*"\s*:\s*true`,
				`--dangerously-skip-permissions`,
			},
			FileTypes:   []string{"json", "yaml", "sh", "md"},
			Components:  []string{"settings", "mcp-server-config", "hook", "plugin", "generic"},
			Remediation: "Replace wildcard grants with an explicit allowlist and keep permission prompts enabled.",
			Confidence:  0.85,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
		{
			ID:       "PERS-001",
			Name:     "Persistence mechanism installation",
			Category: model.CategoryPersistence,
			Severity: model.SeverityHigh,
			Description: "A scanned artifact writes to shell profiles, crontabs, or " +
				"systemd units, giving it a foothold that outlives the agent session.",
			Patterns: []string{
				`>>\s*~?/?\.(?:bashrc|zshrc|profile|bash_profile)`,
				`crontab\s+(?:-l|\-e|[^\n]*\|)`,
				`systemctl\s+(?:enable|daemon-reload)`,
				`launchctl\s+load`,
			},
			FileTypes:   []string{"sh", "md", "yaml"},
			Remediation: "Agent artifacts should not modify login shells or schedulers; remove the persistence write.",
			Confidence:  0.8,
			Correlation: []CorrelationSubRule{
				{
					ID:          "hook-installs-persistence",
					Description: "Persistence mechanism: a hook writes a startup entry and a related skill supplies the payload",
					FilePatterns: []string{
						"hook", "skill", "setup", "install",
					},
					Patterns: []string{
						`>>\s*~?/?\.(?:bashrc|zshrc|profile)`,
						`(?:chmod\s+\+x|base64\s+(?:-d|--decode))`,
					},
					MaxDistance: 2,
				},
			},
			Source:  SourceBuiltin,
			Enabled: true,
		},
		{
			ID:       "OBF-001",
			Name:     "Obfuscated payload",
			Category: model.CategoryObfuscation,
			Severity: model.SeverityMedium,
			Description: "Encoded or escaped content that decodes to executable input. " +
				"Legitimate agent config rarely needs base64 piped to a decoder.",
			Patterns: []string{
				`base64\s+(?:-d|--decode)`,
				`(?:echo|printf)\s+["'][A-Za-z0-9+/]{40,}={0,2}["']\s*\|`,
				`\\x[0-9a-f]{2}(?:\\x[0-9a-f]{2}){7,}`,
				`[\x00-\x08\x0B\x0C\x0E-\x1F]{4,}`,
			},
			FileTypes: []string{"sh", "js", "py", "md", "json", "yaml"},
			ExcludeContext: []string{
				`(?:decode\s+example|encoding\s+reference)`,
			},
			Remediation: "Store content in plain text; encoded blobs in config artifacts warrant manual review.",
			Confidence:  0.7,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
		{
			ID:       "AI-001",
			Name:     "MCP server with shell execution",
			Category: model.CategoryAISpecific,
			Severity: model.SeverityHigh,
			Description: "An MCP server configuration exposes shell or filesystem-write " +
				"tools, extending the agent's blast radius beyond its workspace.",
			Patterns: []string{
				`"command"\s*:\s*"(?:ba)?sh"`,
				`"command"\s*:\s*"[^"]*(?:cmd\.exe|powershell)[^"]*"`,
				`"args"\s*:\s*\[[^\]]*"-c"`,
			},
			FileTypes:   []string{"json", "yaml"},
			Components:  []string{"mcp-server-config", "settings", "generic"},
			Remediation: "Run MCP servers as dedicated binaries with narrow tool surfaces instead of raw shell commands.",
			Confidence:  0.75,
			Correlation: []CorrelationSubRule{
				{
					ID:          "mcp-shell-plus-agent-autonomy",
					Description: "An MCP config exposing shell execution combined with agent instructions requesting autonomous runs",
					FilePatterns: []string{
						"mcp", "settings", "agent", "claude",
					},
					Patterns: []string{
						`"command"\s*:\s*"(?:ba)?sh"`,
						`(?:without\s+asking|do\s+not\s+ask|automatically\s+(?:run|execute|approve))`,
					},
					MaxDistance: 2,
				},
			},
			Source:  SourceBuiltin,
			Enabled: true,
		},
		{
			ID:       "BACK-001",
			Name:     "Reverse shell construct",
			Category: model.CategoryBackdoors,
			Severity: model.SeverityCritical,
			Description: "Classic reverse-shell invocations that hand an interactive " +
				"session to a remote host.",
			Patterns: []string{
				`(?:ba)?sh\s+-i\s+[^\n]*/dev/tcp/`,
				`nc\s+[^\n]*-e\s*/bin/(?:ba)?sh`,
				`python[23]?\s+-c\s+["'][^"']*socket[^"']*subprocess`,
				`socat\s+[^\n]*exec:`,
			},
			FileTypes:   []string{"sh", "py", "js", "md"},
			Remediation: "Delete the reverse-shell payload and treat the artifact source as compromised.",
			Confidence:  0.95,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
		{
			ID:       "BEH-001",
			Name:     "Agent behavioral manipulation",
			Category: model.CategoryBehavioral,
			Severity: model.SeverityMedium,
			Description: "Instructions that tell the agent to hide activity from the " +
				"user or skip confirmation on destructive actions.",
			Patterns: []string{
				`(?:don't|do\s+not|never)\s+(?:tell|inform|notify|show)\s+the\s+user`,
				`without\s+(?:the\s+)?user(?:'s)?\s+(?:knowledge|consent|confirmation)`,
				`(?:silently|secretly|quietly)\s+(?:run|execute|delete|modify|send)`,
			},
			FileTypes:  []string{"md", "txt", "json", "yaml"},
			Components: []string{"skill", "agent", "markdown", "plugin", "settings", "generic"},
			ExcludeContext: []string{
				`security\s+scanner`,
			},
			ExcludeContextWholeFile: true,
			Remediation:             "Agent instructions must keep the user informed; remove concealment directives.",
			Confidence:              0.7,
			Source:                  SourceBuiltin,
			Enabled:                 true,
		},
		{
			ID:       "HIDE-001",
			Name:     "Deceptive unicode in source",
			Category: model.CategoryAdvancedHiding,
			Severity: model.SeverityMedium,
			Description: "Bidirectional-override or homoglyph characters that make " +
				"displayed text differ from what a parser or shell executes.",
			Patterns: []string{
				`[\x{202A}-\x{202E}\x{2066}-\x{2069}]`,
				`[\x{2000}-\x{200A}\x{00A0}]{2,}`,
			},
			FileTypes:   []string{"sh", "js", "py", "md", "json", "yaml"},
			Remediation: "Normalize the file to plain ASCII-compatible whitespace and re-review the affected lines.",
			Confidence:  0.8,
			Source:      SourceBuiltin,
			Enabled:     true,
		},
	}

	out := make([]Rule, 0, len(defs))
	for _, def := range defs {
		def.Source = SourceBuiltin
		out = append(out, Normalize(def))
	}
	return out
}
