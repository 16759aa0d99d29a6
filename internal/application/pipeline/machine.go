package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/dexter/internal/domain"
	"github.com/doeshing/dexter/internal/pkg/progress"
	"github.com/doeshing/dexter/internal/ports"
)

// Deps are the collaborators a Machine drives. History and Bridge may be nil.
type Deps struct {
	Router    ports.Router
	Generator ports.CommandGenerator
	Safety    ports.SafetyChecker
	Context   ports.ContextCollector
	Plugins   []ports.Plugin
	Bridge    ports.LLMBridge
	History   ports.HistoryRepository
	Logger    ports.Logger
}

func (d Deps) validate() error {
	if d.Router == nil || d.Generator == nil || d.Safety == nil || d.Context == nil || d.Logger == nil {
		return errors.New("pipeline.Machine dependencies not satisfied")
	}
	return nil
}

// result is the single value a background task reports.
type result struct {
	route    domain.RouteOutcome
	snapshot domain.ContextSnapshot
	command  string
	preview  domain.Preview
	output   string
	err      error
	// rescanErr reports a failed post-execution context refresh.
	rescanErr error
}

// Machine is the pipeline state machine. It is not safe for concurrent use:
// one event loop owns it and calls Tick at the poll interval.
type Machine struct {
	deps Deps
	ctx  context.Context

	state    State
	input    string
	notice   string
	snapshot domain.ContextSnapshot
	plugin   ports.Plugin
	policy   domain.CachePolicy

	pending  chan result
	relay    *progress.Relay
	progress *domain.Progress
}

// New builds a Machine in the Input state. ctx is handed to every
// background task.
func New(ctx context.Context, deps Deps) (*Machine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Machine{deps: deps, ctx: ctx, state: State{Kind: StateInput}}, nil
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Input returns the retained request text.
func (m *Machine) Input() string { return m.input }

// Notice is the message left by an unsupported route, cleared on submit.
func (m *Machine) Notice() string { return m.notice }

// Progress is the latest progress update of the running execution, if any.
func (m *Machine) Progress() *domain.Progress { return m.progress }

// Snapshot is the directory context used by the last routing pass.
func (m *Machine) Snapshot() domain.ContextSnapshot { return m.snapshot }

// PollInterval is the tick rate the event loop should use right now.
func (m *Machine) PollInterval() time.Duration {
	if m.state.Kind.Busy() {
		return domain.BusyPollInterval
	}
	return domain.IdlePollInterval
}

// SetInput replaces the request text.
func (m *Machine) SetInput(text string) { m.input = text }

// SetDraft replaces the command draft while editing.
func (m *Machine) SetDraft(text string) {
	if m.state.Kind == StateEditingCommand {
		m.state.Draft = text
	}
}

// Submit starts routing the current input. An empty input is a no-op.
func (m *Machine) Submit() bool {
	if m.state.Kind != StateInput || strings.TrimSpace(m.input) == "" {
		return false
	}
	m.notice = ""
	m.enter(State{Kind: StatePendingRouting})
	return true
}

// SelectClarify answers a clarification question with the option whose ID
// matches, then routes the resolved intent again.
func (m *Machine) SelectClarify(id string) bool {
	if m.state.Kind != StateClarifying {
		return false
	}
	for _, opt := range m.state.Options {
		if opt.ID == id {
			m.input = opt.ResolvedIntent
			m.enter(State{Kind: StatePendingRouting})
			return true
		}
	}
	return false
}

// Execute runs the confirmed command.
func (m *Machine) Execute() bool {
	if m.state.Kind != StateAwaitingConfirmation {
		return false
	}
	cmd, plugin := m.state.Command, m.plugin
	m.enter(State{Kind: StateExecuting, Plugin: m.state.Plugin, Command: cmd})
	m.spawnExecution(plugin, cmd)
	return true
}

// EditCommand opens the command for manual editing.
func (m *Machine) EditCommand() bool {
	if m.state.Kind != StateAwaitingConfirmation {
		return false
	}
	next := m.state
	next.Kind = StateEditingCommand
	next.Draft = m.state.Command
	m.state = next
	return true
}

// PreviewEdited dry-runs the edited draft, skipping generation.
func (m *Machine) PreviewEdited() bool {
	if m.state.Kind != StateEditingCommand {
		return false
	}
	draft := strings.TrimSpace(m.state.Draft)
	if draft == "" {
		return false
	}
	m.enter(State{Kind: StatePendingDryRun, Plugin: m.state.Plugin, Command: draft})
	return true
}

// CancelEdit drops the draft and returns to the confirmation prompt.
func (m *Machine) CancelEdit() bool {
	if m.state.Kind != StateEditingCommand {
		return false
	}
	m.state.Kind = StateAwaitingConfirmation
	m.state.Draft = ""
	return true
}

// Regenerate asks for a fresh command, bypassing the response cache once.
func (m *Machine) Regenerate() bool {
	if m.state.Kind != StateAwaitingConfirmation {
		return false
	}
	m.policy = domain.CacheBypass
	m.enter(State{Kind: StatePendingGeneration, Plugin: m.state.Plugin})
	return true
}

// BypassCache makes the next generation skip the response cache.
func (m *Machine) BypassCache() { m.policy = domain.CacheBypass }

// BackToInput abandons the current attempt and keeps the input text.
func (m *Machine) BackToInput() bool {
	switch m.state.Kind {
	case StateInput, StateExecuting:
		return false
	}
	m.enter(State{Kind: StateInput})
	m.policy = domain.CacheNormal
	return true
}

// Retry re-runs the retained input from routing.
func (m *Machine) Retry() bool {
	if m.state.Kind != StateFinished && m.state.Kind != StateError {
		return false
	}
	if strings.TrimSpace(m.input) == "" {
		m.enter(State{Kind: StateInput})
		return true
	}
	m.enter(State{Kind: StatePendingRouting})
	return true
}

// ResetToInput returns to Input from a terminal state, keeping the text.
func (m *Machine) ResetToInput() bool {
	if m.state.Kind != StateFinished && m.state.Kind != StateError {
		return false
	}
	m.enter(State{Kind: StateInput})
	return true
}

// Rerun loads a history record and previews its command again.
func (m *Machine) Rerun(record domain.HistoryRecord) error {
	if m.state.Kind.Busy() {
		return fmt.Errorf("pipeline is busy (%s)", m.state.Kind)
	}
	plugin := m.lookup(record.Plugin)
	if plugin == nil {
		return fmt.Errorf("plugin %q is not available", record.Plugin)
	}
	m.input = record.Input
	m.plugin = plugin
	m.enter(State{Kind: StatePendingDryRun, Plugin: plugin.Name(), Command: record.Command})
	return nil
}

// Tick advances the machine: it spawns the task a pending state asks for,
// drains execution progress and collects a finished task result without
// blocking.
func (m *Machine) Tick() {
	switch m.state.Kind {
	case StatePendingRouting:
		m.spawnRouting(m.input)
		m.state = State{Kind: StateRouting}
	case StatePendingGeneration:
		m.spawnGeneration(m.input, m.snapshot, m.plugin, m.policy)
		m.policy = domain.CacheNormal
		m.state.Kind = StateGenerating
	case StatePendingDryRun:
		m.spawnDryRun(m.plugin, m.state.Command)
		m.state.Kind = StateDryRunning
	}

	if m.relay != nil {
		for _, p := range m.relay.Drain() {
			m.progress = &p
		}
	}

	if m.pending == nil {
		return
	}
	select {
	case res := <-m.pending:
		m.pending = nil
		m.handle(res)
	default:
	}
}

// enter switches state and abandons any task still in flight. Abandoned
// tasks run to completion and their results are discarded.
func (m *Machine) enter(next State) {
	m.pending = nil
	if m.relay != nil {
		m.relay.Abandon()
		m.relay = nil
	}
	m.progress = nil
	m.state = next
}

func (m *Machine) fail(block string, err error) {
	m.deps.Logger.Error(block, err, map[string]interface{}{"input": m.input})
	m.enter(State{Kind: StateError, Err: err.Error()})
}

func (m *Machine) handle(res result) {
	switch m.state.Kind {
	case StateRouting:
		if res.err != nil {
			m.fail("ROUTING_ERROR", res.err)
			return
		}
		m.snapshot = res.snapshot
		m.onRoute(res.route)
	case StateGenerating:
		if res.err != nil {
			m.fail("GENERATION_ERROR", res.err)
			return
		}
		m.deps.Logger.Info("GENERATED_COMMAND", map[string]interface{}{"plugin": m.state.Plugin, "command": res.command})
		m.enter(State{Kind: StatePendingDryRun, Plugin: m.state.Plugin, Command: res.command})
	case StateDryRunning:
		if res.err != nil {
			m.fail("DRY_RUN_ERROR", res.err)
			return
		}
		m.deps.Logger.Info("DRY_RUN_PREVIEW", map[string]interface{}{"command": m.state.Command, "preview": res.preview.Render()})
		m.enter(State{
			Kind:    StateAwaitingConfirmation,
			Plugin:  m.state.Plugin,
			Command: m.state.Command,
			Preview: res.preview,
		})
	case StateExecuting:
		if res.err != nil {
			m.fail("EXECUTION_ERROR", res.err)
			return
		}
		m.deps.Logger.Info("EXECUTION_OUTPUT", map[string]interface{}{"command": m.state.Command, "output": res.output})
		m.record(m.state.Plugin, m.state.Command)
		if res.rescanErr != nil {
			m.deps.Logger.Warn("context rescan failed", map[string]interface{}{"error": res.rescanErr.Error()})
		}
		if res.snapshot.WorkingDir != "" {
			m.snapshot = res.snapshot
		}
		m.enter(State{Kind: StateFinished, Plugin: m.state.Plugin, Command: m.state.Command, Output: res.output})
	}
}

func (m *Machine) onRoute(route domain.RouteOutcome) {
	m.deps.Logger.Info("ROUTING_RESULT", map[string]interface{}{
		"outcome": route.Kind.String(),
		"plugin":  route.Plugin,
	})
	switch route.Kind {
	case domain.RouteSelected:
		plugin := m.lookup(route.Plugin)
		if plugin == nil {
			m.fail("ROUTING_ERROR", fmt.Errorf("router selected unknown plugin %q", route.Plugin))
			return
		}
		m.plugin = plugin
		m.enter(State{Kind: StatePendingGeneration, Plugin: plugin.Name()})
	case domain.RouteUnsupported:
		m.enter(State{Kind: StateInput})
		m.notice = route.Reason
	case domain.RouteClarify:
		m.enter(State{Kind: StateClarifying, Question: route.Question, Options: route.Options})
	}
}

func (m *Machine) record(plugin, command string) {
	if m.deps.History == nil {
		return
	}
	err := m.deps.History.Save(domain.HistoryRecord{Plugin: plugin, Command: command, Input: m.input})
	if err != nil {
		m.deps.Logger.Warn("failed to record history", map[string]interface{}{"error": err.Error()})
	}
}

func (m *Machine) lookup(name string) ports.Plugin {
	for _, p := range m.deps.Plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// spawn runs task in the background and keeps the receiving end of its
// single-value channel. The channel is buffered so an abandoned task never
// blocks on its send.
func (m *Machine) spawn(task func() result) {
	ch := make(chan result, 1)
	m.pending = ch
	go func() { ch <- task() }()
}

func (m *Machine) spawnRouting(input string) {
	ctx, deps := m.ctx, m.deps
	m.spawn(func() result {
		snapshot, err := deps.Context.Collect(ctx)
		if err != nil {
			return result{err: fmt.Errorf("collect context: %w", err)}
		}
		route, err := deps.Router.Route(ctx, input, snapshot, deps.Plugins)
		return result{route: route, snapshot: snapshot, err: err}
	})
}

func (m *Machine) spawnGeneration(input string, snapshot domain.ContextSnapshot, plugin ports.Plugin, policy domain.CachePolicy) {
	ctx, gen := m.ctx, m.deps.Generator
	m.spawn(func() result {
		cmd, err := gen.Generate(ctx, input, snapshot, plugin, policy)
		return result{command: cmd, err: err}
	})
}

func (m *Machine) spawnDryRun(plugin ports.Plugin, cmd string) {
	ctx, safety, bridge := m.ctx, m.deps.Safety, m.deps.Bridge
	m.spawn(func() result {
		if plugin == nil {
			return result{err: errors.New("no plugin selected")}
		}
		if err := safety.Check(cmd); err != nil {
			return result{err: err}
		}
		if !plugin.ValidateCommand(cmd) {
			return result{err: &domain.SafetyRejection{
				Command: cmd,
				Reason:  fmt.Sprintf("%s validator rejected the command", plugin.Name()),
			}}
		}
		preview, err := plugin.DryRun(ctx, cmd, bridge)
		return result{preview: preview, err: err}
	})
}

func (m *Machine) spawnExecution(plugin ports.Plugin, cmd string) {
	if plugin == nil {
		m.fail("EXECUTION_ERROR", errors.New("no plugin selected"))
		return
	}
	ctx, collector := m.ctx, m.deps.Context
	relay := progress.New(domain.ProgressBuffer)
	m.relay = relay
	m.spawn(func() result {
		out, err := plugin.ExecuteWithProgress(ctx, cmd, relay)
		if err != nil {
			return result{err: err}
		}
		snapshot, err := collector.Collect(ctx)
		return result{output: out, snapshot: snapshot, rescanErr: err}
	})
}
