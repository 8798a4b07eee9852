// Package state defines the states and events of the MCP connection lifecycle.
// file: internal/mcp/state/states.go
package state

import "github.com/dkoosis/spotignition/internal/fsm"

// Connection lifecycle states.
const (
	StateUninitialized fsm.State = "uninitialized" // Connected, no initialize yet.
	StateInitializing  fsm.State = "initializing"  // initialize answered, awaiting notifications/initialized.
	StateInitialized   fsm.State = "initialized"   // Ready for tool calls.
	StateShuttingDown  fsm.State = "shuttingDown"  // shutdown received, awaiting exit.
	StateShutdown      fsm.State = "shutdown"      // Terminal.
)

// IsTerminal reports whether no further transitions are expected from s.
func IsTerminal(s fsm.State) bool {
	return s == StateShutdown
}
