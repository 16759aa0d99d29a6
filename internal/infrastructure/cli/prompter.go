package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
)

// Prompter reads line-mode answers from stdin.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask prints prompt and returns the trimmed answer.
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Choose lists the clarification options and returns the chosen option ID.
// The answer may be the option's number or its ID.
func (p *Prompter) Choose(question string, options []domain.ClarifyOption) (string, error) {
	fmt.Fprintln(p.out, labelStyle.Render(question))
	for i, opt := range options {
		line := fmt.Sprintf("  %d) %s", i+1, opt.Label)
		if opt.Detail != "" {
			line += dimStyle.Render(" - " + opt.Detail)
		}
		fmt.Fprintln(p.out, line)
	}
	for {
		answer, err := p.Ask("Choose an option: ")
		if err != nil {
			return "", err
		}
		if id, ok := matchOption(answer, options); ok {
			return id, nil
		}
		fmt.Fprintf(p.out, "Unknown option %q\n", answer)
	}
}

func matchOption(answer string, options []domain.ClarifyOption) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1].ID, true
	}
	for _, opt := range options {
		if strings.EqualFold(opt.ID, answer) {
			return opt.ID, true
		}
	}
	return "", false
}
