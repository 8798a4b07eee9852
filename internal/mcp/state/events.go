// file: internal/mcp/state/events.go
package state

import "github.com/dkoosis/spotignition/internal/fsm"

// Lifecycle events, named after the message that triggers them.
const (
	EventInitializeRequest      fsm.Event = "rcvd_initialize_request"
	EventClientInitialized      fsm.Event = "rcvd_client_initialized_notif"
	EventShutdownRequest        fsm.Event = "rcvd_shutdown_request"
	EventExitNotification       fsm.Event = "rcvd_exit_notification"
	EventMCPRequest             fsm.Event = "rcvd_mcp_request"
	EventTransportErrorOccurred fsm.Event = "transport_error"
)

// EventForMethod maps an MCP method to its lifecycle event.
// Methods without a lifecycle meaning map to EventMCPRequest.
func EventForMethod(method string) fsm.Event {
	switch method {
	case "initialize":
		return EventInitializeRequest
	case "notifications/initialized":
		return EventClientInitialized
	case "shutdown":
		return EventShutdownRequest
	case "exit":
		return EventExitNotification
	default:
		return EventMCPRequest
	}
}

// alwaysAllowed lists methods accepted in every non-terminal state.
var alwaysAllowed = map[string]bool{
	"ping":                    true,
	"notifications/cancelled": true,
}
