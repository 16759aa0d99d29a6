// Package pipeline drives one request from natural language to an executed
// command. The Machine is owned by a single event loop; routing, generation,
// dry runs and executions run as background tasks that hand their one result
// back over a channel.
package pipeline

import "github.com/doeshing/dexter/internal/domain"

// StateKind names a pipeline stage.
type StateKind int

const (
	StateInput StateKind = iota
	StatePendingRouting
	StateRouting
	StateClarifying
	StatePendingGeneration
	StateGenerating
	StatePendingDryRun
	StateDryRunning
	StateAwaitingConfirmation
	StateEditingCommand
	StateExecuting
	StateFinished
	StateError
)

var stateNames = map[StateKind]string{
	StateInput:                "input",
	StatePendingRouting:       "pending_routing",
	StateRouting:              "routing",
	StateClarifying:           "clarifying",
	StatePendingGeneration:    "pending_generation",
	StateGenerating:           "generating",
	StatePendingDryRun:        "pending_dry_run",
	StateDryRunning:           "dry_running",
	StateAwaitingConfirmation: "awaiting_confirmation",
	StateEditingCommand:       "editing_command",
	StateExecuting:            "executing",
	StateFinished:             "finished",
	StateError:                "error",
}

func (k StateKind) String() string {
	if name, ok := stateNames[k]; ok {
		return name
	}
	return "unknown"
}

// Busy reports whether a background task is (or is about to be) in flight.
func (k StateKind) Busy() bool {
	switch k {
	case StatePendingRouting, StateRouting,
		StatePendingGeneration, StateGenerating,
		StatePendingDryRun, StateDryRunning,
		StateExecuting:
		return true
	}
	return false
}

// State is a snapshot of the pipeline for rendering. Only the fields that
// belong to Kind are meaningful.
type State struct {
	Kind StateKind

	// Clarifying
	Question string
	Options  []domain.ClarifyOption

	// AwaitingConfirmation and EditingCommand
	Plugin  string
	Command string
	Preview domain.Preview
	Draft   string

	// Finished
	Output string

	// Error
	Err string
}
