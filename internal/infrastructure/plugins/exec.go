// Package plugins adapts external CLI tools (f2, ffmpeg, pandoc, yt-dlp, libvips,
// jdupes, ocrmypdf, qpdf, whisper.cpp) to the Plugin port. Commands are split into argv and run directly, never through a shell.
package plugins

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/mattn/go-shellwords"
)

var (
	forbiddenTokens     = []string{";", "&&", "||", "|", ">", "<", ">>", "<<"}
	forbiddenSubstrings = []string{"`", "$(", "${", ";", "&&", "||", "|", ">", "<"}
)

// ExecutionFailure is a tool that exited non-zero. Output is kept for display.
type ExecutionFailure struct {
	Program  string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExecutionFailure) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(e.Stdout)
	}
	if detail == "" {
		return fmt.Sprintf("%s exited with code %d", e.Program, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d:\n%s", e.Program, e.ExitCode, detail)
}

// ParseCommand splits raw into argv and checks it invokes program with no
// shell operators, quoted or not.
func ParseCommand(raw, program string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("command is empty")
	}

	parser := shellwords.NewParser()
	argv, err := parser.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid command syntax: %w", err)
	}
	if parser.Position != -1 {
		return nil, fmt.Errorf("unsafe shell operator at offset %d", parser.Position)
	}
	if len(argv) == 0 {
		return nil, errors.New("command is empty")
	}
	if argv[0] != program {
		return nil, fmt.Errorf("unexpected command program: expected %q, got %q", program, argv[0])
	}

	for _, token := range argv {
		for _, bad := range forbiddenTokens {
			if token == bad {
				return nil, fmt.Errorf("unsafe token detected: %s", token)
			}
		}
		for _, bad := range forbiddenSubstrings {
			if strings.Contains(token, bad) {
				return nil, fmt.Errorf("unsafe token detected: %s", token)
			}
		}
	}
	return argv, nil
}

// parseAnyCommand is ParseCommand for tools shipped under several program names.
func parseAnyCommand(raw string, programs ...string) ([]string, error) {
	var err error
	for _, program := range programs {
		var argv []string
		if argv, err = ParseCommand(raw, program); err == nil {
			return argv, nil
		}
	}
	return nil, err
}

// containsFlag matches flags given bare or in --flag=value form.
func containsFlag(argv []string, flags ...string) bool {
	for _, a := range argv {
		for _, f := range flags {
			if a == f || strings.HasPrefix(a, f+"=") {
				return true
			}
		}
	}
	return false
}

// flagValue returns the non-blank value of short/long, given as "-x v",
// "--long v" or "--long=v".
func flagValue(argv []string, short, long string) (string, bool) {
	for i, a := range argv {
		if (a == short || a == long) && i+1 < len(argv) && strings.TrimSpace(argv[i+1]) != "" {
			return argv[i+1], true
		}
		if v, ok := strings.CutPrefix(a, long+"="); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// hasArgFile reports @file response-file arguments.
func hasArgFile(argv []string) bool {
	for _, a := range argv {
		if strings.HasPrefix(a, "@") {
			return true
		}
	}
	return false
}

func containsArg(argv []string, args ...string) bool {
	for _, a := range argv {
		for _, want := range args {
			if a == want {
				return true
			}
		}
	}
	return false
}

// Runner executes argv in a working directory.
type Runner struct {
	dir string
}

// NewRunner builds a runner; an empty dir means the process working directory.
func NewRunner(dir string) *Runner {
	return &Runner{dir: dir}
}

// Run executes argv and returns captured stdout and stderr. A non-zero exit
// is returned as *ExecutionFailure.
func (r *Runner) Run(ctx context.Context, argv []string) (string, string, error) {
	if len(argv) == 0 {
		return "", "", errors.New("command is empty")
	}
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = r.dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	return stdout.String(), stderr.String(), r.wrap(argv[0], err, stdout.String(), stderr.String())
}

// Stream executes argv and calls onLine for every stdout or stderr line as
// it arrives. Lines end at '\n' or '\r' so carriage-return progress counts.
// onLine may be called from two goroutines at once.
func (r *Runner) Stream(ctx context.Context, argv []string, onLine func(string)) (string, string, error) {
	if len(argv) == 0 {
		return "", "", errors.New("command is empty")
	}
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = r.dir
	stdoutPipe, err := c.StdoutPipe()
	if err != nil {
		return "", "", err
	}
	stderrPipe, err := c.StderrPipe()
	if err != nil {
		return "", "", err
	}
	if err := c.Start(); err != nil {
		return "", "", r.wrap(argv[0], err, "", "")
	}

	var wg sync.WaitGroup
	var stdout, stderr string
	wg.Add(2)
	go func() {
		defer wg.Done()
		stdout = collectLines(stdoutPipe, onLine)
	}()
	go func() {
		defer wg.Done()
		stderr = collectLines(stderrPipe, onLine)
	}()
	wg.Wait()

	err = c.Wait()
	return stdout, stderr, r.wrap(argv[0], err, stdout, stderr)
}

// Available reports whether program runs with the given version flag.
func (r *Runner) Available(ctx context.Context, program, versionFlag string) bool {
	if _, err := exec.LookPath(program); err != nil {
		return false
	}
	_, _, err := r.Run(ctx, []string{program, versionFlag})
	return err == nil
}

func (r *Runner) wrap(program string, err error, stdout, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecutionFailure{Program: program, ExitCode: exitErr.ExitCode(), Stdout: stdout, Stderr: stderr}
	}
	return fmt.Errorf("run %s: %w", program, err)
}

func collectLines(rd io.Reader, onLine func(string)) string {
	var captured strings.Builder
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		line := scanner.Text()
		if onLine != nil && line != "" {
			onLine(line)
		}
		captured.WriteString(line)
		captured.WriteByte('\n')
	}
	return captured.String()
}

func scanLinesOrCR(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func combineOutput(stdout, stderr string) string {
	out := strings.TrimRight(stdout, "\n")
	if errText := strings.TrimRight(stderr, "\n"); errText != "" {
		if out != "" {
			out += "\n"
		}
		out += errText
	}
	if strings.TrimSpace(out) == "" {
		return "Command executed successfully (no output)"
	}
	return out
}
