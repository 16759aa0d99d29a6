package security

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/filesystem"
	"github.com/doeshing/dexter/internal/ports"
)

// Rejection is the error every failed check returns.
type Rejection = domain.SafetyRejection

// Guardrail implements the SafetyChecker port.
type Guardrail struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// DangerPattern describes a regex-based guardrail rule.
type DangerPattern struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root for extra rules.
type RulesFile struct {
	Rules struct {
		DangerPatterns []DangerPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

// forbiddenSequences are shell composition and redirection operators.
var forbiddenSequences = []string{"&&", "||", ";", "|", "`", "$(", ">", "<"}

// NewGuardrail compiles the built-in blacklist plus any extra rules found at
// path. An empty path or a missing file means built-ins only.
func NewGuardrail(path string) (*Guardrail, error) {
	rules := defaultPatterns()
	extra, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	rules = append(rules, extra...)

	compiled := make([]compiledPattern, 0, len(rules))
	for _, pattern := range rules {
		re, err := regexp.Compile(pattern.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", pattern.Pattern, err)
		}
		compiled = append(compiled, compiledPattern{re: re, rule: pattern})
	}
	return &Guardrail{patterns: compiled}, nil
}

// Check rejects empty commands, blacklisted shapes, device redirects and any
// shell metacharacter. Quoted arguments containing those characters are
// rejected too.
func (g *Guardrail) Check(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return &Rejection{Command: command, Reason: "empty command"}
	}

	for _, pattern := range g.patterns {
		if pattern.re.MatchString(trimmed) {
			return &Rejection{Command: command, Reason: pattern.rule.Message}
		}
	}

	for _, target := range []string{"/dev/", "/sys/"} {
		if strings.Contains(trimmed, "> "+target) || strings.Contains(trimmed, ">"+target) {
			return &Rejection{Command: command, Reason: "redirection into " + strings.TrimSuffix(target, "/")}
		}
	}

	for _, seq := range forbiddenSequences {
		if strings.Contains(trimmed, seq) {
			return &Rejection{Command: command, Reason: fmt.Sprintf("shell metacharacter %q is not allowed", seq)}
		}
	}
	return nil
}

func loadRules(path string) ([]DangerPattern, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filesystem.ExpandPath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read safety rules: %w", err)
	}
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse safety rules: %w", err)
	}
	return rules.Rules.DangerPatterns, nil
}

func defaultPatterns() []DangerPattern {
	return []DangerPattern{
		{Pattern: `(?i)^rm\s+`, Message: "file deletion with rm"},
		{Pattern: `(?i)^mv\s+/\s*`, Message: "moving the filesystem root"},
		{Pattern: `(?i)^dd\s+`, Message: "raw disk write with dd"},
		{Pattern: `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`, Message: "fork bomb"},
		{Pattern: `(?i)^sudo\s+rm`, Message: "privileged deletion"},
		{Pattern: `(?i)>\s*/dev/sd[a-z]`, Message: "writing to a block device"},
		{Pattern: `(?i)mkfs`, Message: "formatting a filesystem"},
	}
}

var _ ports.SafetyChecker = (*Guardrail)(nil)
