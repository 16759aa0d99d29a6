package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/logger"
	"github.com/doeshing/dexter/internal/ports"
)

type stubRouter struct {
	mu       sync.Mutex
	outcomes []domain.RouteOutcome
	err      error
	inputs   []string
}

func (r *stubRouter) Route(_ context.Context, input string, _ domain.ContextSnapshot, _ []ports.Plugin) (domain.RouteOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return domain.RouteOutcome{}, r.err
	}
	out := r.outcomes[0]
	if len(r.outcomes) > 1 {
		r.outcomes = r.outcomes[1:]
	}
	return out, nil
}

type stubGenerator struct {
	mu       sync.Mutex
	command  string
	err      error
	policies []domain.CachePolicy
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ domain.ContextSnapshot, _ ports.Plugin, policy domain.CachePolicy) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies = append(g.policies, policy)
	return g.command, g.err
}

type stubSafety struct{ err error }

func (s stubSafety) Check(string) error { return s.err }

type stubCollector struct{}

func (stubCollector) Collect(context.Context) (domain.ContextSnapshot, error) {
	return domain.ContextSnapshot{WorkingDir: "/work", Files: []string{"a.jpg"}}, nil
}

type failingCollector struct{}

func (failingCollector) Collect(context.Context) (domain.ContextSnapshot, error) {
	return domain.ContextSnapshot{}, errors.New("permission denied")
}

type stubPlugin struct {
	valid   bool
	output  string
	execErr error
	release chan struct{}
}

func (p *stubPlugin) Name() string                    { return "ffmpeg" }
func (p *stubPlugin) Description() string             { return "media" }
func (p *stubPlugin) DocForRouter() string            { return "media" }
func (p *stubPlugin) DocForExecutor() string          { return "ffmpeg -i in out" }
func (p *stubPlugin) ValidateCommand(cmd string) bool { return p.valid }
func (p *stubPlugin) DryRun(_ context.Context, cmd string, _ ports.LLMBridge) (domain.Preview, error) {
	return domain.TextPreview("would run " + cmd), nil
}
func (p *stubPlugin) ExecuteWithProgress(_ context.Context, _ string, progress ports.ProgressSender) (string, error) {
	progress.Send(domain.Percent(50, "halfway"))
	if p.release != nil {
		<-p.release
	}
	return p.output, p.execErr
}

type memHistory struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
}

func (h *memHistory) Save(r domain.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}
func (h *memHistory) Records(int) ([]domain.HistoryRecord, error) { return h.records, nil }
func (h *memHistory) Get(string) (domain.HistoryRecord, error)    { return domain.HistoryRecord{}, nil }
func (h *memHistory) Pin(string) error                            { return nil }
func (h *memHistory) Unpin(string) error                          { return nil }
func (h *memHistory) Clear() error                                { return nil }

type fixture struct {
	machine   *Machine
	router    *stubRouter
	generator *stubGenerator
	plugin    *stubPlugin
	history   *memHistory
}

func newFixture(t *testing.T, outcomes ...domain.RouteOutcome) *fixture {
	t.Helper()
	if len(outcomes) == 0 {
		outcomes = []domain.RouteOutcome{domain.Selected("ffmpeg")}
	}
	f := &fixture{
		router:    &stubRouter{outcomes: outcomes},
		generator: &stubGenerator{command: "ffmpeg -i a.jpg -vf scale=100:-1 b.jpg"},
		plugin:    &stubPlugin{valid: true, output: "done"},
		history:   &memHistory{},
	}
	m, err := New(context.Background(), Deps{
		Router:    f.router,
		Generator: f.generator,
		Safety:    stubSafety{},
		Context:   stubCollector{},
		Plugins:   []ports.Plugin{f.plugin},
		History:   f.history,
		Logger:    logger.NewStd(false),
	})
	require.NoError(t, err)
	f.machine = m
	return f
}

// tickUntil ticks the machine until it reaches one of the wanted states.
func tickUntil(t *testing.T, m *Machine, want ...StateKind) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.Tick()
		for _, k := range want {
			if m.State().Kind == k {
				return m.State()
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("machine stuck in %s, want %v", m.State().Kind, want)
	return State{}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(context.Background(), Deps{})
	assert.Error(t, err)
}

func TestSubmit_EmptyInputStays(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("   ")
	assert.False(t, f.machine.Submit())
	assert.Equal(t, StateInput, f.machine.State().Kind)
}

func TestSubmit_MovesToPendingRouting(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("resize a.jpg")
	assert.True(t, f.machine.Submit())
	assert.Equal(t, StatePendingRouting, f.machine.State().Kind)
	assert.Equal(t, domain.BusyPollInterval, f.machine.PollInterval())
}

func TestHappyPath_ExecuteFinishes(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()

	st := tickUntil(t, f.machine, StateAwaitingConfirmation, StateError)
	require.Equal(t, StateAwaitingConfirmation, st.Kind, st.Err)
	assert.Equal(t, "ffmpeg", st.Plugin)
	assert.Equal(t, "ffmpeg -i a.jpg -vf scale=100:-1 b.jpg", st.Command)
	assert.Equal(t, "would run ffmpeg -i a.jpg -vf scale=100:-1 b.jpg", st.Preview.Render())
	assert.Equal(t, []string{"a.jpg"}, f.machine.Snapshot().Files)

	require.True(t, f.machine.Execute())
	assert.Equal(t, StateExecuting, f.machine.State().Kind)

	st = tickUntil(t, f.machine, StateFinished, StateError)
	require.Equal(t, StateFinished, st.Kind, st.Err)
	assert.Equal(t, "done", st.Output)
	assert.Equal(t, domain.IdlePollInterval, f.machine.PollInterval())

	require.Len(t, f.history.records, 1)
	assert.Equal(t, "resize a.jpg", f.history.records[0].Input)
	assert.Equal(t, "ffmpeg", f.history.records[0].Plugin)
}

func TestExecute_FailureMovesToError(t *testing.T) {
	f := newFixture(t)
	f.plugin.execErr = errors.New("ffmpeg exited with code 1")
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	f.machine.Execute()
	st := tickUntil(t, f.machine, StateFinished, StateError)
	assert.Equal(t, StateError, st.Kind)
	assert.Equal(t, "ffmpeg exited with code 1", st.Err)
	assert.Empty(t, f.history.records)
}

func TestExecute_ProgressIsRelayed(t *testing.T) {
	f := newFixture(t)
	f.plugin.release = make(chan struct{})
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)
	f.machine.Execute()

	deadline := time.Now().Add(2 * time.Second)
	for f.machine.Progress() == nil && time.Now().Before(deadline) {
		f.machine.Tick()
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, f.machine.Progress())
	assert.Equal(t, "50.0% halfway", f.machine.Progress().String())
	assert.Equal(t, StateExecuting, f.machine.State().Kind)

	close(f.plugin.release)
	tickUntil(t, f.machine, StateFinished)
	assert.Nil(t, f.machine.Progress())
}

func TestClarifyRoundTrip(t *testing.T) {
	f := newFixture(t,
		domain.Clarify("Which?", []domain.ClarifyOption{{ID: "a", Label: "Convert", ResolvedIntent: "convert a.jpg to png"}}),
		domain.Selected("ffmpeg"),
	)
	f.machine.SetInput("do something with a.jpg")
	f.machine.Submit()

	st := tickUntil(t, f.machine, StateClarifying)
	assert.Equal(t, "Which?", st.Question)
	require.Len(t, st.Options, 1)

	assert.False(t, f.machine.SelectClarify("zzz"))
	require.True(t, f.machine.SelectClarify("a"))
	assert.Equal(t, "convert a.jpg to png", f.machine.Input())
	assert.Equal(t, StatePendingRouting, f.machine.State().Kind)

	tickUntil(t, f.machine, StateAwaitingConfirmation)
	assert.Equal(t, []string{"do something with a.jpg", "convert a.jpg to png"}, f.router.inputs)
}

func TestUnsupportedReturnsToInputWithNotice(t *testing.T) {
	f := newFixture(t, domain.Unsupported("Sending email is not supported."))
	f.machine.SetInput("email bob")
	f.machine.Submit()

	tickUntil(t, f.machine, StateInput)
	assert.Equal(t, "Sending email is not supported.", f.machine.Notice())
	assert.Equal(t, "email bob", f.machine.Input())
}

func TestRoutingErrorMovesToError(t *testing.T) {
	f := newFixture(t)
	f.router.err = errors.New("all completion targets failed")
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()

	st := tickUntil(t, f.machine, StateError)
	assert.Contains(t, st.Err, "all completion targets failed")

	require.True(t, f.machine.ResetToInput())
	assert.Equal(t, StateInput, f.machine.State().Kind)
	assert.Equal(t, "resize a.jpg", f.machine.Input())
}

func TestSafetyRejectionMovesToError(t *testing.T) {
	f := newFixture(t)
	f.machine.deps.Safety = stubSafety{err: &domain.SafetyRejection{Command: "x", Reason: "shell metacharacter"}}
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()

	st := tickUntil(t, f.machine, StateError, StateAwaitingConfirmation)
	require.Equal(t, StateError, st.Kind)
	assert.Contains(t, st.Err, "rejected by safety check")
}

func TestValidatorRejectionMovesToError(t *testing.T) {
	f := newFixture(t)
	f.plugin.valid = false
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()

	st := tickUntil(t, f.machine, StateError, StateAwaitingConfirmation)
	require.Equal(t, StateError, st.Kind)
	assert.Contains(t, st.Err, "ffmpeg validator rejected the command")

	require.True(t, f.machine.Retry())
	assert.Equal(t, StatePendingRouting, f.machine.State().Kind)
}

func TestRegenerateBypassesCacheOnce(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	require.True(t, f.machine.Regenerate())
	assert.Equal(t, StatePendingGeneration, f.machine.State().Kind)
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	assert.Equal(t, []domain.CachePolicy{domain.CacheNormal, domain.CacheBypass}, f.generator.policies)
}

func TestBackToInputAfterRegenerateRestoresNormalPolicy(t *testing.T) {
	f := newFixture(t, domain.Selected("ffmpeg"), domain.Selected("ffmpeg"))
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	require.True(t, f.machine.Regenerate())
	require.True(t, f.machine.BackToInput())

	f.machine.SetInput("convert b.png to jpg")
	require.True(t, f.machine.Submit())
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	require.NotEmpty(t, f.generator.policies)
	assert.NotContains(t, f.generator.policies, domain.CacheBypass)
	assert.Equal(t, domain.CacheNormal, f.generator.policies[len(f.generator.policies)-1])
}

func TestExecute_RescanFailureIsLoggedAndKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)
	before := f.machine.Snapshot()

	var buf bytes.Buffer
	f.machine.deps.Context = failingCollector{}
	f.machine.deps.Logger = logger.New(&buf, true)

	require.True(t, f.machine.Execute())
	st := tickUntil(t, f.machine, StateFinished, StateError)
	require.Equal(t, StateFinished, st.Kind, st.Err)
	assert.Equal(t, "done", st.Output)
	assert.Equal(t, before, f.machine.Snapshot())
	assert.Contains(t, buf.String(), "[WARN] context rescan failed")
	assert.Contains(t, buf.String(), "permission denied")
}

func TestEditCommandFlow(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	require.True(t, f.machine.EditCommand())
	assert.Equal(t, f.machine.State().Command, f.machine.State().Draft)
	require.True(t, f.machine.CancelEdit())
	assert.Equal(t, StateAwaitingConfirmation, f.machine.State().Kind)

	f.machine.EditCommand()
	f.machine.SetDraft("  ")
	assert.False(t, f.machine.PreviewEdited(), "blank drafts are ignored")

	f.machine.SetDraft("ffmpeg -i a.jpg b.png")
	require.True(t, f.machine.PreviewEdited())
	assert.Equal(t, StatePendingDryRun, f.machine.State().Kind)

	st := tickUntil(t, f.machine, StateAwaitingConfirmation)
	assert.Equal(t, "ffmpeg -i a.jpg b.png", st.Command)
	assert.Len(t, f.generator.policies, 1, "edited commands skip generation")
}

func TestBackToInputDiscardsStaleResult(t *testing.T) {
	f := newFixture(t)
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	f.machine.Tick()
	require.Equal(t, StateRouting, f.machine.State().Kind)

	require.True(t, f.machine.BackToInput())
	time.Sleep(20 * time.Millisecond)
	f.machine.Tick()
	assert.Equal(t, StateInput, f.machine.State().Kind)
}

func TestRerunHistoryRecord(t *testing.T) {
	f := newFixture(t)
	err := f.machine.Rerun(domain.HistoryRecord{Plugin: "ffmpeg", Command: "ffmpeg -i a.mp4 a.mp3", Input: "extract audio"})
	require.NoError(t, err)

	st := tickUntil(t, f.machine, StateAwaitingConfirmation)
	assert.Equal(t, "ffmpeg -i a.mp4 a.mp3", st.Command)
	assert.Equal(t, "extract audio", f.machine.Input())

	assert.Error(t, f.machine.Rerun(domain.HistoryRecord{Plugin: "missing"}))
}

func TestBypassCacheAppliesToFirstGeneration(t *testing.T) {
	f := newFixture(t)
	f.machine.BypassCache()
	f.machine.SetInput("resize a.jpg")
	f.machine.Submit()
	tickUntil(t, f.machine, StateAwaitingConfirmation)

	assert.Equal(t, []domain.CachePolicy{domain.CacheBypass}, f.generator.policies)
}
