// file: internal/mcp/state/machine.go
package state

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/fsm"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/mcperror"
)

// MCPStateMachine tracks one connection's lifecycle.
type MCPStateMachine struct {
	fsm.FSM
	logger logging.Logger
}

// NewMCPStateMachine builds the lifecycle machine in StateUninitialized.
func NewMCPStateMachine(logger logging.Logger) (*MCPStateMachine, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	log := logger.WithField("component", "mcp_state_machine")

	m := fsm.NewFSM(StateUninitialized, log)
	m.AddTransition(fsm.Transition{From: []fsm.State{StateUninitialized}, Event: EventInitializeRequest, To: StateInitializing})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateInitializing}, Event: EventClientInitialized, To: StateInitialized})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateInitialized}, Event: EventMCPRequest, To: StateInitialized})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateInitialized}, Event: EventShutdownRequest, To: StateShuttingDown})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateInitialized, StateShuttingDown}, Event: EventExitNotification, To: StateShutdown})
	m.AddTransition(fsm.Transition{
		From:  []fsm.State{StateUninitialized, StateInitializing, StateInitialized, StateShuttingDown},
		Event: EventTransportErrorOccurred,
		To:    StateShutdown,
	})

	if err := m.Build(); err != nil {
		return nil, errors.Wrap(err, "failed to build MCP state machine configuration")
	}
	return &MCPStateMachine{FSM: m, logger: log}, nil
}

// ValidateMethod returns a request sequence error if method may not be
// received in the current state.
func (m *MCPStateMachine) ValidateMethod(method string) error {
	current := m.CurrentState()
	if alwaysAllowed[method] && !IsTerminal(current) {
		return nil
	}

	event := EventForMethod(method)
	if m.CanTransition(event) {
		return nil
	}

	m.logger.Warn("Received out-of-sequence MCP method.", "method", method, "state", current)
	return mcperror.NewRequestSequenceError(
		fmt.Sprintf("Method '%s' not allowed in current state '%s'", method, current),
		map[string]any{"method": method, "state": string(current)},
	)
}

// Advance fires the lifecycle event for method. Methods that are always
// allowed do not move the machine.
func (m *MCPStateMachine) Advance(ctx context.Context, method string) error {
	if alwaysAllowed[method] {
		return nil
	}
	return m.Transition(ctx, EventForMethod(method), nil)
}
