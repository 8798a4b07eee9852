// file: internal/schema/errors.go
package schema

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrorCode defines validation error codes.
type ErrorCode int

// Validation error codes.
const (
	ErrSchemaNotFound ErrorCode = iota + 1000
	ErrSchemaCompileFailed
	ErrValidationFailed
	ErrInvalidJSONFormat
)

// ValidationError describes why a document was rejected by a schema.
type ValidationError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// SchemaPath is the keyword location that failed, e.g. /properties/trackIds/maxItems.
	SchemaPath string
	// InstancePath is the failing location in the document, e.g. /trackIds.
	InstancePath string
	// Keyword is the last segment of SchemaPath, e.g. maxItems.
	Keyword string
	Context map[string]any
}

func (e *ValidationError) Error() string {
	base := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.InstancePath != "" {
		base += fmt.Sprintf(" (instance path: %s)", e.InstancePath)
	}
	if e.SchemaPath != "" {
		base += fmt.Sprintf(" (schema path: %s)", e.SchemaPath)
	}
	return base
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// WithContext adds a key/value pair and returns e.
func (e *ValidationError) WithContext(key string, value any) *ValidationError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewValidationError creates a ValidationError. cause may be nil.
func NewValidationError(code ErrorCode, message string, cause error) *ValidationError {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	return &ValidationError{Code: code, Message: message, Cause: wrapped}
}

// convertValidationError reduces a jsonschema error to its most specific cause.
func convertValidationError(valErr *jsonschema.ValidationError, name string) *ValidationError {
	leaf := valErr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	customErr := NewValidationError(ErrValidationFailed, leaf.Message, valErr)
	customErr.SchemaPath = leaf.KeywordLocation
	customErr.InstancePath = leaf.InstanceLocation
	if idx := strings.LastIndex(leaf.KeywordLocation, "/"); idx >= 0 {
		customErr.Keyword = leaf.KeywordLocation[idx+1:]
	}
	customErr = customErr.WithContext("schema", name)

	basic := valErr.BasicOutput()
	if len(basic.Errors) > 1 {
		causes := make([]map[string]string, 0, len(basic.Errors))
		for _, cause := range basic.Errors {
			if cause.KeywordLocation == "" {
				continue
			}
			causes = append(causes, map[string]string{
				"instanceLocation": cause.InstanceLocation,
				"keywordLocation":  cause.KeywordLocation,
				"error":            cause.Error,
			})
		}
		customErr = customErr.WithContext("validationErrors", causes)
	}
	return customErr
}
