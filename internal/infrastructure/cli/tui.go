package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doeshing/dexter/internal/application/pipeline"
)

// pollMsg asks the model to advance the pipeline.
type pollMsg time.Time

func poll(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return pollMsg(t) })
}

// tuiModel hosts the pipeline in the bubbletea event loop. Update is the
// only place the machine is touched.
type tuiModel struct {
	machine  *pipeline.Machine
	renderer *Renderer

	input textinput.Model
	draft textinput.Model
	spin  spinner.Model

	lastKind pipeline.StateKind
	preview  string
	cursor   int
	width    int
	session  string
}

func newTUIModel(machine *pipeline.Machine, renderer *Renderer, initial, session string) tuiModel {
	in := textinput.New()
	in.Placeholder = "Describe what you want to do, e.g. convert all .mov files to .mp4"
	in.Prompt = "> "
	in.CharLimit = 0
	in.SetValue(initial)
	in.Focus()

	draft := textinput.New()
	draft.Prompt = "$ "
	draft.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return tuiModel{
		machine:  machine,
		renderer: renderer,
		input:    in,
		draft:    draft,
		spin:     sp,
		lastKind: machine.State().Kind,
		session:  session,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, poll(m.machine.PollInterval()))
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case pollMsg:
		m.machine.Tick()
		m.sync()
		return m, poll(m.machine.PollInterval())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		m.draft.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	st := m.machine.State()

	switch st.Kind {
	case pipeline.StateInput:
		switch key.String() {
		case "esc":
			return m, tea.Quit
		case "enter":
			m.machine.SetInput(m.input.Value())
			m.machine.Submit()
		default:
			m.input, cmd = m.input.Update(key)
			m.machine.SetInput(m.input.Value())
		}

	case pipeline.StateClarifying:
		switch key.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(st.Options)-1 {
				m.cursor++
			}
		case "enter", " ":
			if m.cursor < len(st.Options) {
				m.machine.SelectClarify(st.Options[m.cursor].ID)
			}
		case "esc":
			m.machine.BackToInput()
		default:
			if id, ok := matchOption(key.String(), st.Options); ok {
				m.machine.SelectClarify(id)
			}
		}

	case pipeline.StateAwaitingConfirmation:
		switch key.String() {
		case "y", "enter":
			m.machine.Execute()
		case "m":
			m.machine.EditCommand()
		case "e", "n", "esc":
			m.machine.BackToInput()
		case "r":
			m.machine.Regenerate()
		}

	case pipeline.StateEditingCommand:
		switch key.String() {
		case "ctrl+d", "ctrl+s":
			m.machine.SetDraft(m.draft.Value())
			m.machine.PreviewEdited()
		case "esc":
			m.machine.CancelEdit()
		default:
			m.draft, cmd = m.draft.Update(key)
			m.machine.SetDraft(m.draft.Value())
		}

	case pipeline.StateFinished, pipeline.StateError:
		switch key.String() {
		case "r":
			m.machine.Retry()
		case "enter", "esc", " ":
			m.machine.ResetToInput()
		}

	default:
		if key.String() == "esc" {
			m.machine.BackToInput()
		}
	}

	m.sync()
	return m, cmd
}

// sync refreshes the widgets after a state change.
func (m *tuiModel) sync() {
	st := m.machine.State()
	if st.Kind == m.lastKind {
		return
	}
	m.lastKind = st.Kind

	switch st.Kind {
	case pipeline.StateInput:
		m.input.SetValue(m.machine.Input())
		m.input.CursorEnd()
		m.input.Focus()
		m.draft.Blur()
	case pipeline.StateClarifying:
		m.cursor = 0
	case pipeline.StateAwaitingConfirmation:
		m.preview = m.renderer.Preview(st.Preview)
		m.draft.Blur()
	case pipeline.StateEditingCommand:
		m.draft.SetValue(st.Draft)
		m.draft.CursorEnd()
		m.draft.Focus()
		m.input.Blur()
	}
}

func (m tuiModel) View() string {
	var b strings.Builder
	st := m.machine.State()

	b.WriteString(titleStyle.Render("dexter"))
	b.WriteString(dimStyle.Render("  natural language to tool commands"))
	b.WriteString("\n\n")

	switch st.Kind {
	case pipeline.StateInput:
		b.WriteString(m.input.View())
		if notice := m.machine.Notice(); notice != "" {
			b.WriteString("\n\n" + noticeStyle.Render(notice))
		}
		b.WriteString(footer("enter submit", "esc quit"))

	case pipeline.StateClarifying:
		b.WriteString(labelStyle.Render(st.Question) + "\n")
		for i, opt := range st.Options {
			line := fmt.Sprintf("%d) %s", i+1, opt.Label)
			if opt.Detail != "" {
				line += dimStyle.Render(" - " + opt.Detail)
			}
			if i == m.cursor {
				line = cursorStyle.Render("> ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
		b.WriteString(footer("up/down move", "enter choose", "esc back"))

	case pipeline.StateAwaitingConfirmation:
		b.WriteString(m.proposal(st))
		b.WriteString("\n\n" + panelStyle.Render(m.preview))
		b.WriteString(footer("y execute", "m modify", "r regenerate", "e edit request", "n back"))

	case pipeline.StateEditingCommand:
		b.WriteString(labelStyle.Render("Edit command") + "\n")
		b.WriteString(m.draft.View())
		b.WriteString(footer("ctrl+d preview", "esc cancel"))

	case pipeline.StateFinished:
		b.WriteString(m.proposal(st))
		b.WriteString("\n\n" + panelStyle.Render(strings.TrimRight(st.Output, "\n")))
		b.WriteString(footer("r run again", "enter new request"))

	case pipeline.StateError:
		b.WriteString(errorStyle.Render("Error") + "\n")
		b.WriteString(st.Err)
		b.WriteString(footer("r retry", "enter new request"))

	default:
		msg := stateLabel(st.Kind.String())
		if p := m.machine.Progress(); p != nil {
			msg += " " + p.String()
		}
		if st.Command != "" {
			b.WriteString(m.proposal(st) + "\n\n")
		}
		b.WriteString(m.spin.View() + " " + msg)
		if st.Kind != pipeline.StateExecuting {
			b.WriteString(footer("esc back"))
		}
	}

	if m.session != "" {
		b.WriteString("\n" + dimStyle.Render("session log: "+m.session))
	}
	return b.String() + "\n"
}

func (m tuiModel) proposal(st pipeline.State) string {
	return fmt.Sprintf("%s %s\n%s %s",
		labelStyle.Render("Tool:"), st.Plugin,
		labelStyle.Render("Command:"), commandStyle.Render(st.Command))
}

func footer(keys ...string) string {
	return "\n\n" + dimStyle.Render(strings.Join(keys, " | "))
}

// runTUI runs the interactive host until the user quits.
func runTUI(ctx context.Context, machine *pipeline.Machine, initial, session string) error {
	model := newTUIModel(machine, NewRenderer(100), initial, session)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
