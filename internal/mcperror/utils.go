// file: internal/mcperror/utils.go
package mcperror

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// IsToolNotFoundError checks if the error is a tool not found error.
func IsToolNotFoundError(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}

// IsInvalidArgumentsError checks if the error is an invalid arguments error.
func IsInvalidArgumentsError(err error) bool {
	return errors.Is(err, ErrInvalidArguments)
}

// IsSpotifyError checks if the error came from the Spotify Web API.
func IsSpotifyError(err error) bool {
	return errors.Is(err, ErrSpotify)
}

// IsRequestSequenceError checks if the error is a lifecycle ordering violation.
func IsRequestSequenceError(err error) bool {
	return errors.Is(err, ErrRequestSequence)
}

// GetErrorCategory gets the error category from an error.
func GetErrorCategory(err error) string {
	if category, ok := TryGetProperty(err, "category"); ok {
		if cat, ok := category.(string); ok {
			return cat
		}
	}
	return ""
}

// GetErrorCode gets the JSON-RPC error code from an error.
// Errors without a code are internal errors.
func GetErrorCode(err error) int {
	if code, ok := TryGetProperty(err, "code"); ok {
		if c, ok := code.(int); ok {
			return c
		}
	}
	return CodeInternalError
}

// ErrorToMap converts an error to a map suitable for JSON-RPC error responses.
//
//	errorMap := mcperror.ErrorToMap(err)
//	jsonBytes, _ := json.Marshal(errorMap)
func ErrorToMap(err error) map[string]any {
	if err == nil {
		return nil
	}

	code := GetErrorCode(err)
	properties := GetErrorProperties(err)

	errorMap := map[string]any{
		"code":    code,
		"message": UserFacingMessage(code),
	}

	dataProps := make(map[string]any)
	for k, v := range properties {
		if k != "category" && k != "code" && k != "stack" && !containsSensitiveKeyword(k) {
			dataProps[k] = v
		}
	}
	// Invalid params carry the concrete reason; the host needs it to fix the call.
	if code == CodeInvalidParams {
		dataProps["detail"] = err.Error()
	}

	if len(dataProps) > 0 {
		errorMap["data"] = dataProps
	}

	return errorMap
}

func containsSensitiveKeyword(key string) bool {
	lower := strings.ToLower(key)
	for _, keyword := range []string{"token", "password", "secret", "credential"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
