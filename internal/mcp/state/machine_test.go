// file: internal/mcp/state/machine_test.go
package state

import (
	"context"
	"testing"

	"github.com/dkoosis/spotignition/internal/fsm"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/dkoosis/spotignition/internal/mcperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestMCPStateMachine(t *testing.T) *MCPStateMachine {
	t.Helper()
	m, err := NewMCPStateMachine(logging.GetNoopLogger())
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func assertSequenceError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, mcperror.IsRequestSequenceError(err), "expected request sequence error, got %v", err)
	assert.Equal(t, mcperror.CodeRequestSequence, mcperror.GetErrorCode(err))
}

func TestMCPStateMachine_StartsUninitialized(t *testing.T) {
	m := setupTestMCPStateMachine(t)
	assert.Equal(t, StateUninitialized, m.CurrentState())
}

func TestMCPStateMachine_FullLifecycle(t *testing.T) {
	m := setupTestMCPStateMachine(t)
	ctx := context.Background()

	for _, step := range []struct {
		method string
		want   fsm.State
	}{
		{"initialize", StateInitializing},
		{"notifications/initialized", StateInitialized},
		{"tools/list", StateInitialized},
		{"tools/call", StateInitialized},
		{"ping", StateInitialized},
		{"shutdown", StateShuttingDown},
		{"exit", StateShutdown},
	} {
		require.NoError(t, m.ValidateMethod(step.method), step.method)
		require.NoError(t, m.Advance(ctx, step.method), step.method)
		assert.Equal(t, step.want, m.CurrentState(), step.method)
	}
	assert.True(t, IsTerminal(m.CurrentState()))
}

func TestMCPStateMachine_RejectsOutOfSequence(t *testing.T) {
	m := setupTestMCPStateMachine(t)
	ctx := context.Background()

	assertSequenceError(t, m.ValidateMethod("tools/call"))
	assertSequenceError(t, m.ValidateMethod("notifications/initialized"))
	assertSequenceError(t, m.ValidateMethod("shutdown"))
	assert.NoError(t, m.ValidateMethod("ping"), "ping is allowed before initialize")

	require.NoError(t, m.Advance(ctx, "initialize"))
	assertSequenceError(t, m.ValidateMethod("initialize"))
	assertSequenceError(t, m.ValidateMethod("tools/list"))

	require.NoError(t, m.Advance(ctx, "notifications/initialized"))
	assertSequenceError(t, m.ValidateMethod("initialize"))

	require.NoError(t, m.Advance(ctx, "shutdown"))
	assertSequenceError(t, m.ValidateMethod("tools/call"))

	require.NoError(t, m.Advance(ctx, "exit"))
	assertSequenceError(t, m.ValidateMethod("ping"))
}

func TestMCPStateMachine_TransportErrorShutsDown(t *testing.T) {
	m := setupTestMCPStateMachine(t)
	require.NoError(t, m.Transition(context.Background(), EventTransportErrorOccurred, nil))
	assert.Equal(t, StateShutdown, m.CurrentState())
}

func TestMCPStateMachine_Reset(t *testing.T) {
	m := setupTestMCPStateMachine(t)
	ctx := context.Background()
	require.NoError(t, m.Advance(ctx, "initialize"))
	require.NoError(t, m.Advance(ctx, "notifications/initialized"))

	require.NoError(t, m.Reset())
	assert.Equal(t, StateUninitialized, m.CurrentState())
	assert.NoError(t, m.ValidateMethod("initialize"))
	assertSequenceError(t, m.ValidateMethod("tools/list"))
}
