package domain

import "strings"

// ContextSnapshot describes the working directory the request is about.
type ContextSnapshot struct {
	WorkingDir string
	Files      []string
	Truncated  bool
}

// Summary renders the file list for prompts.
func (c ContextSnapshot) Summary() string {
	if len(c.Files) == 0 {
		return "No non-hidden files found in current directory."
	}
	out := strings.Join(c.Files, ", ")
	if c.Truncated {
		out += ", ..."
	}
	return out
}
