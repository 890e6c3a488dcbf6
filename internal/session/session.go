// Package session serializes every mutation of an engine.Database onto a
// single goroutine.
//
// The engine graph is not safe for concurrent use: an intersection pass
// reads every input's query and writes every output's. HTTP handlers, the
// file watcher and the CLI therefore submit Events and wait for a Result
// while Run applies them one at a time in arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/cinemad/internal/engine"
)

var (
	// ErrClosed is returned for events submitted after Run has stopped.
	ErrClosed = errors.New("session closed")

	// ErrUnknownDisplay is returned for a display id the database lacks.
	ErrUnknownDisplay = errors.New("unknown display")

	// ErrUnknownStructure is returned for a structure id the display lacks.
	ErrUnknownStructure = errors.New("unknown structure")

	// ErrNotInput is returned when a selection targets an output.
	ErrNotInput = errors.New("structure is not an input")
)

// EventType distinguishes event kinds.
type EventType int

const (
	// EventActivate loads a Display's Source and rebuilds it.
	EventActivate EventType = iota + 1
	// EventSelect applies a value to an input's control.
	EventSelect
	// EventSnapshot reads a Display without changing it.
	EventSnapshot
	// EventReloadSource re-activates every Display using a Source.
	EventReloadSource
)

// String implements fmt.Stringer.
func (t EventType) String() string {
	switch t {
	case EventActivate:
		return "activate"
	case EventSelect:
		return "select"
	case EventSnapshot:
		return "snapshot"
	case EventReloadSource:
		return "reload"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one request to the Session.
type Event struct {
	Type      EventType
	Display   string
	Structure string // EventSelect
	Value     string // EventSelect
	Source    string // EventReloadSource

	ctx   context.Context
	reply chan reply
}

// Result is the reply to an Event.
type Result struct {
	// Token is the activation token for EventActivate.
	Token string
	// Snapshot is the Display after the event, for every type but
	// EventReloadSource.
	Snapshot engine.DisplaySnapshot
	// Displays lists the re-activated Displays for EventReloadSource.
	Displays []string
}

type reply struct {
	result Result
	err    error
}

// Session owns one Database and applies Events to it from Run.
type Session struct {
	db     *engine.Database
	queue  *eventQueue
	logger *slog.Logger
}

// New creates a Session for db. A nil logger uses the Database's logger.
// Call Run to start processing.
func New(db *engine.Database, logger *slog.Logger) *Session {
	if logger == nil {
		logger = db.Logger()
	}
	return &Session{
		db:     db,
		queue:  newEventQueue(),
		logger: logger,
	}
}

// Database returns the owned Database. Callers must not mutate it outside
// of Run.
func (s *Session) Database() *engine.Database { return s.db }

// Run processes events until ctx is cancelled or Stop is called. Events
// still queued when Run returns fail with ErrClosed.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("session starting", "spec", s.db.SpecURL())

	for {
		if ev, ok := s.queue.TryDequeue(); ok {
			s.process(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Info("session stopping: context cancelled")
			fail(s.queue.Close())
			return ctx.Err()
		case _, open := <-s.queue.Wait():
			if !open && s.queue.Len() == 0 {
				s.logger.Info("session stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop makes Run return once the current event finishes.
func (s *Session) Stop() {
	fail(s.queue.Close())
}

func fail(pending []Event) {
	for _, ev := range pending {
		ev.reply <- reply{err: ErrClosed}
	}
}

// Do submits ev and waits for its result. Processing uses ctx, so
// cancelling it also abandons an in-flight load.
func (s *Session) Do(ctx context.Context, ev Event) (Result, error) {
	ev.ctx = ctx
	ev.reply = make(chan reply, 1)
	if !s.queue.Enqueue(ev) {
		return Result{}, ErrClosed
	}
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ev.reply:
		return r.result, r.err
	}
}

// Activate loads and rebuilds a Display.
func (s *Session) Activate(ctx context.Context, display string) (Result, error) {
	return s.Do(ctx, Event{Type: EventActivate, Display: display})
}

// Select applies value to an input structure of a Display.
func (s *Session) Select(ctx context.Context, display, structure, value string) (Result, error) {
	return s.Do(ctx, Event{Type: EventSelect, Display: display, Structure: structure, Value: value})
}

// Snapshot reads a Display.
func (s *Session) Snapshot(ctx context.Context, display string) (Result, error) {
	return s.Do(ctx, Event{Type: EventSnapshot, Display: display})
}

// ReloadSource re-activates every Display that uses source.
func (s *Session) ReloadSource(ctx context.Context, source string) (Result, error) {
	return s.Do(ctx, Event{Type: EventReloadSource, Source: source})
}

// process applies one event. Called only from Run.
func (s *Session) process(runCtx context.Context, ev Event) {
	ctx := ev.ctx
	if ctx == nil {
		ctx = runCtx
	}
	res, err := s.apply(ctx, ev)
	if err != nil {
		s.logger.Warn("session event failed",
			"event", ev.Type.String(),
			"display", ev.Display,
			"structure", ev.Structure,
			"source", ev.Source,
			"error", err,
		)
	}
	if ev.reply != nil {
		ev.reply <- reply{result: res, err: err}
	}
}

func (s *Session) apply(ctx context.Context, ev Event) (Result, error) {
	if ev.Type == EventReloadSource {
		var res Result
		for _, d := range s.db.DisplaysUsing(ev.Source) {
			d.Activate(ctx)
			res.Displays = append(res.Displays, d.ID())
		}
		return res, nil
	}

	d, ok := s.db.Display(ev.Display)
	if !ok {
		return Result{}, fmt.Errorf("display %q: %w", ev.Display, ErrUnknownDisplay)
	}

	var res Result
	switch ev.Type {
	case EventActivate:
		res.Token = d.Activate(ctx)
	case EventSelect:
		st, ok := d.Structure(ev.Structure)
		if !ok {
			return Result{}, fmt.Errorf("display %q structure %q: %w", ev.Display, ev.Structure, ErrUnknownStructure)
		}
		in, ok := st.(*engine.InputStructure)
		if !ok {
			return Result{}, fmt.Errorf("display %q structure %q: %w", ev.Display, ev.Structure, ErrNotInput)
		}
		if err := in.Select(ev.Value); err != nil {
			return Result{}, err
		}
	case EventSnapshot:
	default:
		return Result{}, fmt.Errorf("unknown event type: %d", int(ev.Type))
	}
	res.Snapshot = d.Snapshot()
	return res, nil
}
