package wizard

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// Runtime is the single message-processing loop: it owns the current Model,
// applies the reducer, checks invariants and asks the orchestrator for
// follow-up commands. Dispatch must only be called from one goroutine, which
// bubbletea guarantees for Update.
type Runtime struct {
	model  Model
	seq    *Sequencer
	orch   *Orchestrator
	log    *slog.Logger
	checks bool
}

func NewRuntime(ctx context.Context, backend Backend, opts Options, log *slog.Logger) *Runtime {
	if log == nil {
		log = slog.Default()
	}
	seq := NewSequencer()
	return &Runtime{
		model:  NewModel(),
		seq:    seq,
		orch:   NewOrchestrator(ctx, backend, opts, seq, log),
		log:    log,
		checks: checksEnabled,
	}
}

// Init returns the start-of-application commands.
func (r *Runtime) Init() tea.Cmd {
	return r.orch.Init()
}

// Model returns the current snapshot.
func (r *Runtime) Model() Model {
	return r.model
}

// Sequencer exposes the in-flight bookkeeping, mainly for tests.
func (r *Runtime) Sequencer() *Sequencer {
	return r.seq
}

// Dispatch applies msg and returns the commands the transition requires.
// An invariant violation panics with *InvariantViolation.
func (r *Runtime) Dispatch(msg Msg) tea.Cmd {
	switch m := msg.(type) {
	case FilesLoaded:
		r.seq.Settle(m.Epoch)
	case ErrorOccurred:
		if m.Kind == FilesLoadFailed {
			r.seq.Settle(m.Epoch)
		}
	}

	prev := r.model
	next := Update(prev, msg)
	if fl, ok := msg.(FilesLoaded); ok && !acceptFiles(prev, fl.Epoch) {
		r.log.Debug("discarded stale files", "epoch", fl.Epoch, "current", prev.FileRequestEpoch)
	}
	if prev.Step != next.Step {
		r.log.Info("step transition", "from", prev.Step, "to", next.Step, "msg", fmt.Sprintf("%T", msg))
	}

	cmd := r.orch.Effects(prev, next, msg)
	if r.checks {
		if err := CheckInvariants(next, msg, r.seq); err != nil {
			r.log.Error("invariant violation", "err", err)
			panic(err)
		}
	}
	r.model = next
	return cmd
}
