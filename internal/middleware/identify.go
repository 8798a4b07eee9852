// file: internal/middleware/identify.go
package middleware

import (
	"encoding/json"
)

// envelope is the part of a JSON-RPC message the middlewares look at.
type envelope struct {
	Method string          `json:"method"`
	ID     json.RawMessage `json:"id"`
}

// identifyMessage extracts method and raw id. Unparseable input yields zero values.
func identifyMessage(message []byte) envelope {
	var env envelope
	_ = json.Unmarshal(message, &env)
	return env
}

// isErrorResponse reports whether a response carries a JSON-RPC error.
func isErrorResponse(response []byte) bool {
	if len(response) == 0 {
		return false
	}
	var reply struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(response, &reply); err != nil {
		return false
	}
	return len(reply.Error) > 0 && string(reply.Error) != "null"
}
