// file: internal/fsm/fsm_test.go
package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/dkoosis/spotignition/internal/logging"
	lfsm "github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"

	EventStart Event = "start"
	EventPause Event = "pause"
	EventStop  Event = "stop"
	EventTick  Event = "tick"
	EventForce Event = "force"
)

func buildTestFSM(t *testing.T) FSM {
	t.Helper()
	m := NewFSM(StateIdle, logging.GetNoopLogger())
	m.AddTransition(Transition{From: []State{StateIdle, StatePaused}, Event: EventStart, To: StateRunning})
	m.AddTransition(Transition{From: []State{StateRunning}, Event: EventPause, To: StatePaused})
	m.AddTransition(Transition{From: []State{StateRunning, StatePaused}, Event: EventStop, To: StateFinished})
	m.AddTransition(Transition{From: []State{StateRunning}, Event: EventTick, To: StateRunning})
	require.NoError(t, m.Build())
	return m
}

func TestFSM_Build_IsIdempotent(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	require.NoError(t, m.Build())
	require.NoError(t, m.Build())
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestFSM_UseBeforeBuild(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	assert.Equal(t, State(""), m.CurrentState())
	assert.False(t, m.CanTransition(EventStart))
	assert.Error(t, m.Transition(context.Background(), EventStart, nil))
}

func TestFSM_BasicTransitions(t *testing.T) {
	m := buildTestFSM(t)
	ctx := context.Background()

	require.NoError(t, m.Transition(ctx, EventStart, nil))
	assert.Equal(t, StateRunning, m.CurrentState())

	require.NoError(t, m.Transition(ctx, EventPause, nil))
	assert.Equal(t, StatePaused, m.CurrentState())

	require.NoError(t, m.Transition(ctx, EventStart, nil), "resume from paused")
	require.NoError(t, m.Transition(ctx, EventStop, nil))
	assert.Equal(t, StateFinished, m.CurrentState())
}

func TestFSM_SelfTransitionIsNotAnError(t *testing.T) {
	m := buildTestFSM(t)
	ctx := context.Background()
	require.NoError(t, m.Transition(ctx, EventStart, nil))

	require.NoError(t, m.Transition(ctx, EventTick, nil))
	assert.Equal(t, StateRunning, m.CurrentState())
}

func TestFSM_InvalidTransition(t *testing.T) {
	m := buildTestFSM(t)

	assert.False(t, m.CanTransition(EventStop))
	err := m.Transition(context.Background(), EventStop, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inappropriate in current state")
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestFSM_ConflictingDestinations(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	m.AddTransition(Transition{From: []State{StateIdle}, Event: EventStart, To: StateRunning})
	m.AddTransition(Transition{From: []State{StatePaused}, Event: EventStart, To: StateFinished})
	err := m.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicting destinations")
}

func TestFSM_MissingFromStates(t *testing.T) {
	m := NewFSM(StateIdle, nil)
	m.AddTransition(Transition{Event: EventStart, To: StateRunning})
	assert.Error(t, m.Build())
}

func TestFSM_Guard(t *testing.T) {
	allow := true
	m := NewFSM(StateIdle, nil)
	m.AddTransition(Transition{
		From:  []State{StateIdle},
		Event: EventForce,
		To:    StateRunning,
		Condition: func(_ context.Context, event Event, data any) bool {
			assert.Equal(t, EventForce, event)
			assert.Equal(t, "payload", data)
			return allow
		},
	})
	require.NoError(t, m.Build())
	ctx := context.Background()

	require.NoError(t, m.Transition(ctx, EventForce, "payload"))
	assert.Equal(t, StateRunning, m.CurrentState())

	require.NoError(t, m.SetState(StateIdle))
	allow = false
	err := m.Transition(ctx, EventForce, "payload")
	require.Error(t, err)
	var canceled lfsm.CanceledError
	assert.True(t, errors.As(err, &canceled), "guard rejection surfaces as CanceledError")
	assert.Equal(t, StateIdle, m.CurrentState())
}

func TestFSM_Reset(t *testing.T) {
	m := buildTestFSM(t)
	ctx := context.Background()
	require.NoError(t, m.Transition(ctx, EventStart, nil))
	require.NoError(t, m.Transition(ctx, EventStop, nil))

	require.NoError(t, m.Reset())
	assert.Equal(t, StateIdle, m.CurrentState())
}
