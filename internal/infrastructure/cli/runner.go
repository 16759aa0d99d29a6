package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/doeshing/dexter/internal/application/pipeline"
	"github.com/doeshing/dexter/internal/domain"
)

// RunOptions tune the line-mode runner.
type RunOptions struct {
	// Yes executes the previewed command without asking.
	Yes bool
	// Regenerate skips the response cache for the first generation.
	Regenerate bool
}

// lineRunner drives a pipeline.Machine to completion without the TUI.
type lineRunner struct {
	machine  *pipeline.Machine
	prompter *Prompter
	renderer *Renderer
	spinner  *Spinner
	out      io.Writer
	opts     RunOptions
}

func newLineRunner(machine *pipeline.Machine, in io.Reader, out, status io.Writer, opts RunOptions) *lineRunner {
	return &lineRunner{
		machine:  machine,
		prompter: NewPrompter(in, out),
		renderer: NewRenderer(80),
		spinner:  NewSpinner(status),
		out:      out,
		opts:     opts,
	}
}

// runRequest routes, previews and (after confirmation) executes input.
func (r *lineRunner) runRequest(ctx context.Context, input string) error {
	if r.opts.Regenerate {
		r.machine.BypassCache()
	}
	r.machine.SetInput(input)
	if !r.machine.Submit() {
		return errors.New("request is empty")
	}
	return r.drive(ctx)
}

// rerun previews a history record again and executes it after confirmation.
func (r *lineRunner) rerun(ctx context.Context, record domain.HistoryRecord) error {
	if err := r.machine.Rerun(record); err != nil {
		return err
	}
	return r.drive(ctx)
}

func (r *lineRunner) drive(ctx context.Context) error {
	defer r.spinner.Stop()
	for {
		r.machine.Tick()
		st := r.machine.State()

		if st.Kind.Busy() {
			msg := stateLabel(st.Kind.String())
			if p := r.machine.Progress(); p != nil {
				msg = p.String()
			}
			r.spinner.Update(msg)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.machine.PollInterval()):
			}
			continue
		}
		r.spinner.Stop()

		done, err := r.step(st)
		if done || err != nil {
			return err
		}
	}
}

// step handles one interactive state. It reports true once the run is over.
func (r *lineRunner) step(st pipeline.State) (bool, error) {
	switch st.Kind {
	case pipeline.StateInput:
		if notice := r.machine.Notice(); notice != "" {
			return true, fmt.Errorf("unsupported request: %s", notice)
		}
		return true, nil

	case pipeline.StateClarifying:
		id, err := r.prompter.Choose(st.Question, st.Options)
		if err != nil {
			return true, err
		}
		r.machine.SelectClarify(id)

	case pipeline.StateAwaitingConfirmation:
		r.showProposal(st)
		if r.opts.Yes {
			r.machine.Execute()
			return false, nil
		}
		return r.confirm()

	case pipeline.StateFinished:
		fmt.Fprintln(r.out, strings.TrimRight(st.Output, "\n"))
		return true, nil

	case pipeline.StateError:
		return true, errors.New(st.Err)

	default:
		return true, fmt.Errorf("unexpected pipeline state %s", st.Kind)
	}
	return false, nil
}

func (r *lineRunner) showProposal(st pipeline.State) {
	fmt.Fprintf(r.out, "%s %s\n", labelStyle.Render("Tool:"), st.Plugin)
	fmt.Fprintf(r.out, "%s %s\n\n", labelStyle.Render("Command:"), commandStyle.Render(st.Command))
	fmt.Fprintln(r.out, r.renderer.Preview(st.Preview))
	fmt.Fprintln(r.out)
}

func (r *lineRunner) confirm() (bool, error) {
	answer, err := r.prompter.Ask("Execute? [y]es / [n]o / [m]odify / [r]egenerate: ")
	if err != nil {
		return true, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		r.machine.Execute()
	case "m", "modify", "edit":
		r.machine.EditCommand()
		draft, err := r.prompter.Ask("New command: ")
		if err != nil {
			return true, err
		}
		r.machine.SetDraft(draft)
		if !r.machine.PreviewEdited() {
			r.machine.CancelEdit()
		}
	case "r", "regenerate":
		r.machine.Regenerate()
	default:
		fmt.Fprintln(r.out, dimStyle.Render("Cancelled."))
		return true, nil
	}
	return false, nil
}
