// Package llmtext cleans up model output before it is parsed or executed.
package llmtext

import "strings"

// StripCodeFence removes a surrounding markdown fence (``` or ```lang) and
// trims whitespace. Text without a fence is only trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		if lang := strings.TrimSpace(s[:nl]); !strings.ContainsAny(lang, " \t") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the outermost {...} span in s, or s itself when
// no braces are found.
func ExtractJSONObject(s string) string {
	s = StripCodeFence(s)
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// FirstLine returns the first non-empty line, without a leading "$ " prompt.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.TrimSpace(strings.TrimPrefix(line, "$ "))
	}
	return ""
}
