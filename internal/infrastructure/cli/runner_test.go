package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/application/pipeline"
	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/logger"
	"github.com/doeshing/dexter/internal/ports"
)

type fakeRouter struct{ outcome domain.RouteOutcome }

func (r fakeRouter) Route(context.Context, string, domain.ContextSnapshot, []ports.Plugin) (domain.RouteOutcome, error) {
	return r.outcome, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Generate(_ context.Context, input string, _ domain.ContextSnapshot, _ ports.Plugin, _ domain.CachePolicy) (string, error) {
	return "pandoc " + strings.Fields(input)[len(strings.Fields(input))-1] + " -o out.pdf", nil
}

type allowAll struct{}

func (allowAll) Check(string) error { return nil }

type fakeCollector struct{}

func (fakeCollector) Collect(context.Context) (domain.ContextSnapshot, error) {
	return domain.ContextSnapshot{WorkingDir: "/tmp"}, nil
}

type fakePlugin struct{ executed []string }

func (p *fakePlugin) Name() string                { return "pandoc" }
func (p *fakePlugin) Description() string         { return "documents" }
func (p *fakePlugin) DocForRouter() string        { return "documents" }
func (p *fakePlugin) DocForExecutor() string      { return "pandoc in -o out" }
func (p *fakePlugin) ValidateCommand(string) bool { return true }
func (p *fakePlugin) DryRun(_ context.Context, cmd string, _ ports.LLMBridge) (domain.Preview, error) {
	return domain.TextPreview("Converts the document."), nil
}
func (p *fakePlugin) ExecuteWithProgress(_ context.Context, cmd string, _ ports.ProgressSender) (string, error) {
	p.executed = append(p.executed, cmd)
	return "converted", nil
}

func newTestRunner(t *testing.T, outcome domain.RouteOutcome, in io.Reader, out *bytes.Buffer, opts RunOptions) (*lineRunner, *fakePlugin) {
	t.Helper()
	plugin := &fakePlugin{}
	machine, err := pipeline.New(context.Background(), pipeline.Deps{
		Router:    fakeRouter{outcome: outcome},
		Generator: fakeGenerator{},
		Safety:    allowAll{},
		Context:   fakeCollector{},
		Plugins:   []ports.Plugin{plugin},
		Logger:    logger.NewStd(false),
	})
	require.NoError(t, err)
	return newLineRunner(machine, in, out, io.Discard, opts), plugin
}

func TestLineRunner_YesExecutes(t *testing.T) {
	var out bytes.Buffer
	runner, plugin := newTestRunner(t, domain.Selected("pandoc"), strings.NewReader(""), &out, RunOptions{Yes: true})

	require.NoError(t, runner.runRequest(context.Background(), "convert notes.md"))
	assert.Equal(t, []string{"pandoc notes.md -o out.pdf"}, plugin.executed)
	assert.Contains(t, out.String(), "pandoc notes.md -o out.pdf")
	assert.Contains(t, out.String(), "converted")
}

func TestLineRunner_DeclineDoesNotExecute(t *testing.T) {
	var out bytes.Buffer
	runner, plugin := newTestRunner(t, domain.Selected("pandoc"), strings.NewReader("n\n"), &out, RunOptions{})

	require.NoError(t, runner.runRequest(context.Background(), "convert notes.md"))
	assert.Empty(t, plugin.executed)
	assert.Contains(t, out.String(), "Cancelled.")
}

func TestLineRunner_ModifyThenExecute(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("m\npandoc notes.md -o notes.html\ny\n")
	runner, plugin := newTestRunner(t, domain.Selected("pandoc"), in, &out, RunOptions{})

	require.NoError(t, runner.runRequest(context.Background(), "convert notes.md"))
	assert.Equal(t, []string{"pandoc notes.md -o notes.html"}, plugin.executed)
}

func TestLineRunner_Unsupported(t *testing.T) {
	var out bytes.Buffer
	runner, _ := newTestRunner(t, domain.Unsupported("No tool sends email."), strings.NewReader(""), &out, RunOptions{})

	err := runner.runRequest(context.Background(), "email bob")
	assert.EqualError(t, err, "unsupported request: No tool sends email.")
}

func TestLineRunner_EmptyRequest(t *testing.T) {
	var out bytes.Buffer
	runner, _ := newTestRunner(t, domain.Selected("pandoc"), strings.NewReader(""), &out, RunOptions{})
	assert.Error(t, runner.runRequest(context.Background(), "  "))
}

func TestLineRunner_Rerun(t *testing.T) {
	var out bytes.Buffer
	runner, plugin := newTestRunner(t, domain.Selected("pandoc"), strings.NewReader("y\n"), &out, RunOptions{})

	err := runner.rerun(context.Background(), domain.HistoryRecord{Plugin: "pandoc", Command: "pandoc a.md -o a.pdf", Input: "convert a.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pandoc a.md -o a.pdf"}, plugin.executed)
}
