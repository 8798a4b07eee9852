// Package fsm provides a small finite state machine builder over looplab/fsm.
// file: internal/fsm/fsm.go
package fsm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	lfsm "github.com/looplab/fsm"
)

// State represents a state in the FSM.
type State string

// Event represents an event that can trigger a state transition.
type Event string

// GuardCondition decides whether a transition may proceed.
type GuardCondition func(ctx context.Context, event Event, data any) bool

// Transition defines a transition rule between states.
type Transition struct {
	From      []State
	To        State
	Event     Event
	Condition GuardCondition
}

// FSM is a state machine built from Transition definitions.
type FSM interface {
	// AddTransition stores a transition definition. Call Build() after adding all transitions.
	AddTransition(transition Transition) FSM
	// Build creates the underlying machine.
	Build() error
	CurrentState() State
	// CanTransition reports whether event is defined for the current state. Guards are not evaluated.
	CanTransition(event Event) bool
	// Transition fires event. A self-transition is not an error.
	Transition(ctx context.Context, event Event, data any) error
	SetState(state State) error
	// Reset returns to the initial state.
	Reset() error
}

type loopFSM struct {
	initialState State
	logger       logging.Logger
	transitions  []Transition
	fsm          *lfsm.FSM
	buildErr     error
	mu           sync.RWMutex
}

// NewFSM creates a builder starting in initialState.
func NewFSM(initialState State, logger logging.Logger) FSM {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &loopFSM{
		initialState: initialState,
		logger:       logger.WithField("component", "fsm"),
	}
}

func (l *loopFSM) AddTransition(t Transition) FSM {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.fsm != nil:
		l.recordBuildErr(errors.New("cannot AddTransition after Build"))
	case len(t.From) == 0:
		l.recordBuildErr(errors.Newf("transition for event %q has no 'From' states", t.Event))
	default:
		l.transitions = append(l.transitions, t)
	}
	return l
}

func (l *loopFSM) recordBuildErr(err error) {
	l.logger.Error("Invalid FSM definition.", "error", err)
	if l.buildErr == nil {
		l.buildErr = err
	}
}

func (l *loopFSM) Build() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fsm != nil || l.buildErr != nil {
		return l.buildErr
	}

	descs := make(map[Event]*lfsm.EventDesc)
	order := make([]Event, 0)
	guards := make(map[Event][]Transition)

	for _, t := range l.transitions {
		desc, exists := descs[t.Event]
		if !exists {
			desc = &lfsm.EventDesc{Name: string(t.Event), Dst: string(t.To)}
			descs[t.Event] = desc
			order = append(order, t.Event)
		} else if desc.Dst != string(t.To) {
			l.buildErr = errors.Newf("conflicting destinations (%q and %q) for event %q", desc.Dst, t.To, t.Event)
			return l.buildErr
		}
		for _, from := range t.From {
			if !containsString(desc.Src, string(from)) {
				desc.Src = append(desc.Src, string(from))
			}
		}
		if t.Condition != nil {
			guards[t.Event] = append(guards[t.Event], t)
		}
	}

	events := make([]lfsm.EventDesc, 0, len(order))
	for _, ev := range order {
		events = append(events, *descs[ev])
	}

	callbacks := lfsm.Callbacks{}
	for ev, ts := range guards {
		callbacks["before_"+string(ev)] = l.guardCallback(ts)
	}

	l.fsm = lfsm.NewFSM(string(l.initialState), events, callbacks)
	l.logger.Debug("FSM built.", "initialState", l.initialState, "events", len(events))
	return nil
}

// guardCallback cancels the event when the guard registered for its source state says no.
func (l *loopFSM) guardCallback(ts []Transition) lfsm.Callback {
	return func(ctx context.Context, e *lfsm.Event) {
		var data any
		if len(e.Args) > 0 {
			data = e.Args[0]
		}
		for _, t := range ts {
			if !containsState(t.From, State(e.Src)) {
				continue
			}
			if !t.Condition(ctx, t.Event, data) {
				e.Cancel(errors.Newf("guard for event %q from state %q failed", t.Event, e.Src))
			}
			return
		}
	}
}

func (l *loopFSM) machine() (*lfsm.FSM, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.fsm == nil {
		if l.buildErr != nil {
			return nil, l.buildErr
		}
		return nil, errors.New("fsm used before Build")
	}
	return l.fsm, nil
}

func (l *loopFSM) CurrentState() State {
	m, err := l.machine()
	if err != nil {
		return ""
	}
	return State(m.Current())
}

func (l *loopFSM) CanTransition(event Event) bool {
	m, err := l.machine()
	if err != nil {
		return false
	}
	return m.Can(string(event))
}

func (l *loopFSM) Transition(ctx context.Context, event Event, data any) error {
	m, err := l.machine()
	if err != nil {
		return err
	}
	from := m.Current()

	var args []any
	if data != nil {
		args = append(args, data)
	}
	err = m.Event(ctx, string(event), args...)

	var noTransition lfsm.NoTransitionError
	if err != nil && errors.As(err, &noTransition) && noTransition.Err == nil {
		err = nil
	}
	if err != nil {
		l.logger.Debug("FSM transition failed.", "event", event, "from_state", from, "error", err)
		return err
	}
	l.logger.Debug("FSM transition.", "event", event, "from_state", from, "to_state", m.Current())
	return nil
}

func (l *loopFSM) SetState(state State) error {
	m, err := l.machine()
	if err != nil {
		return err
	}
	m.SetState(string(state))
	return nil
}

func (l *loopFSM) Reset() error {
	return l.SetState(l.initialState)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsState(list []State, s State) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
