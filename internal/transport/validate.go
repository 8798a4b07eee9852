// file: internal/transport/validate.go
package transport

import (
	"encoding/json"
	"fmt"
	"strings"
)

func invalid(message []byte, reason string, kv ...any) *Error {
	err := NewError(ErrInvalidMessage, reason, nil)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			err = err.WithContext(key, kv[i+1])
		}
	}
	return err.WithContext("messagePreview", string(preview(message)))
}

// ValidateMessage checks the JSON-RPC 2.0 envelope of a single message:
// version, method and id types, params shape, and the request/response field rules.
// It does not look at method-specific params.
func ValidateMessage(message []byte) error {
	var msg map[string]any
	if err := json.Unmarshal(message, &msg); err != nil {
		return NewParseError(message, err)
	}

	version, ok := msg["jsonrpc"]
	if !ok {
		return invalid(message, "missing 'jsonrpc' field")
	}
	if version != "2.0" {
		return invalid(message, "unsupported JSON-RPC version", "version", version)
	}

	id, hasID := msg["id"]
	if hasID {
		switch id.(type) {
		case string, float64, nil:
		default:
			return invalid(message, "invalid request ID type", "idType", fmt.Sprintf("%T", id))
		}
	}

	method, hasMethod := msg["method"]
	if hasMethod {
		return validateCall(message, msg, method, hasID)
	}
	return validateResponse(message, msg, hasID)
}

func validateCall(message []byte, msg map[string]any, method any, hasID bool) error {
	kind := "notification"
	if hasID {
		kind = "request"
	}

	name, ok := method.(string)
	if !ok {
		return invalid(message, "method must be a string", "method", method)
	}
	if name == "" {
		return invalid(message, "method cannot be empty")
	}
	if strings.HasPrefix(name, "rpc.") {
		return invalid(message, "method names starting with 'rpc.' are reserved for internal use", "method", name)
	}

	if params, exists := msg["params"]; exists {
		switch params.(type) {
		case map[string]any, []any:
		default:
			return invalid(message, "params must be an object or array", "paramsType", fmt.Sprintf("%T", params))
		}
	}
	if _, has := msg["result"]; has {
		return invalid(message, kind+" message cannot contain 'result' field")
	}
	if _, has := msg["error"]; has {
		return invalid(message, kind+" message cannot contain 'error' field")
	}
	return nil
}

func validateResponse(message []byte, msg map[string]any, hasID bool) error {
	if !hasID {
		return invalid(message, "response message must contain 'id' field")
	}

	_, hasResult := msg["result"]
	errorObj, hasError := msg["error"]

	if hasError {
		errorMap, ok := errorObj.(map[string]any)
		if !ok {
			return invalid(message, "error must be an object", "errorType", fmt.Sprintf("%T", errorObj))
		}
		code, exists := errorMap["code"]
		if !exists {
			return invalid(message, "error object must contain 'code' field")
		}
		if _, isNumber := code.(float64); !isNumber {
			return invalid(message, "error code must be a number", "codeType", fmt.Sprintf("%T", code))
		}
		text, exists := errorMap["message"]
		if !exists {
			return invalid(message, "error object must contain 'message' field")
		}
		if _, isString := text.(string); !isString {
			return invalid(message, "error message must be a string", "messageType", fmt.Sprintf("%T", text))
		}
	}

	switch {
	case !hasResult && !hasError:
		return invalid(message, "response message must contain either 'result' or 'error' field")
	case hasResult && hasError:
		return invalid(message, "response message cannot contain both 'result' and 'error' fields")
	}
	if _, has := msg["params"]; has {
		return invalid(message, "response message cannot contain 'params' field")
	}
	return nil
}
