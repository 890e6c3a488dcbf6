package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/cinemad/internal/builder"
	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/loader"
	"github.com/roach88/cinemad/internal/testutil"
)

// Harness executes one scenario against a freshly opened database.
type Harness struct {
	display *engine.Display
	steps   *testutil.StepCounter
	result  *Result
	passes  *passRecorder
}

// passRecorder is the engine observer that buffers intersection passes
// until the step that caused them has been traced.
type passRecorder struct {
	mu      sync.Mutex
	pending []TraceEvent
}

func (p *passRecorder) SourceLoaded(string, int, time.Duration, error) {}

func (p *passRecorder) IntersectionPass(display string, total, selected int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, TraceEvent{
		Type:     EventPass,
		Display:  display,
		Total:    total,
		Selected: selected,
	})
}

func (p *passRecorder) drain() []TraceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

// Run executes a scenario and returns the result. Each run opens its own
// database, so scenarios are isolated from each other.
//
// Execution flow:
//  1. Open the spec with the default loader and builder
//  2. Activate the display
//  3. Apply each step, tracing passes and output counts after it
//  4. Evaluate expectations against the final outputs
//
// The error return is reserved for scenarios that cannot run at all;
// failed steps and expectations are reported through Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, testutil.DiscardLogger())
}

// RunWithLogger is Run with engine logging sent to logger. A nil logger
// discards output.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = testutil.DiscardLogger()
	}
	passes := &passRecorder{}
	db, err := engine.Open(ctx, scenario.Spec,
		engine.WithLogger(logger),
		engine.WithTokenGenerator(testutil.NewSequentialTokens(scenario.TokenPrefix)),
		engine.WithObserver(passes),
		engine.WithLoader(loader.New(loader.WithLogger(logger))),
		engine.WithBuilders(builder.New(builder.WithLogger(logger)).Builder()),
	)
	if err != nil {
		return nil, fmt.Errorf("open spec: %w", err)
	}

	d, ok := db.Display(scenario.Display)
	if !ok {
		return nil, fmt.Errorf("display %q not found in %s", scenario.Display, scenario.Spec)
	}

	h := &Harness{
		display: d,
		steps:   testutil.NewStepCounter(),
		result:  NewResult(),
		passes:  passes,
	}

	h.activate(ctx)
	for i, step := range scenario.Steps {
		if step.Activate {
			h.activate(ctx)
			continue
		}
		h.selectValue(i, step)
	}

	for _, msg := range EvaluateExpectations(d, scenario.Expect) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) record(e TraceEvent) {
	e.Step = h.steps.Next()
	h.result.Trace = append(h.result.Trace, e)
}

// settle traces the passes caused by the last step and the resulting
// size of every output.
func (h *Harness) settle() {
	for _, p := range h.passes.drain() {
		h.record(p)
	}
	for _, out := range h.display.Outputs() {
		h.record(TraceEvent{
			Type:      EventOutput,
			Structure: out.ID(),
			Count:     len(out.Query()),
		})
	}
}

func (h *Harness) activate(ctx context.Context) {
	token := h.display.Activate(ctx)
	h.record(TraceEvent{
		Type:       EventActivate,
		Display:    h.display.ID(),
		Activation: token,
	})
	h.settle()
}

func (h *Harness) selectValue(index int, step Step) {
	sel := step.Select
	in, ok := h.display.Input(sel.Structure)
	if !ok {
		h.result.AddError(fmt.Sprintf("steps[%d]: %q is not an input of display %q",
			index, sel.Structure, h.display.ID()))
		return
	}

	err := in.Select(sel.Value)
	switch {
	case err == nil:
		h.record(TraceEvent{Type: EventSelect, Structure: sel.Structure, Value: sel.Value})
		if step.Reject {
			h.result.AddError(fmt.Sprintf("steps[%d]: selecting %q on %s should have been refused",
				index, sel.Value, sel.Structure))
		}
	case step.Reject && (engine.IsSelectError(err) || errors.Is(err, engine.ErrNoControl)):
		h.record(TraceEvent{Type: EventReject, Structure: sel.Structure, Value: sel.Value, Error: err.Error()})
		return
	default:
		h.record(TraceEvent{Type: EventReject, Structure: sel.Structure, Value: sel.Value, Error: err.Error()})
		h.result.AddError(fmt.Sprintf("steps[%d]: %v", index, err))
		return
	}
	h.settle()
}
