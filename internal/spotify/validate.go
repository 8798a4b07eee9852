// file: internal/spotify/validate.go
package spotify

import (
	"fmt"
	"strings"

	"github.com/dkoosis/spotignition/internal/mcperror"
	"github.com/dkoosis/spotignition/internal/schema"
)

// MaxBatchSize is the largest number of identifiers accepted by get_tracks.
const MaxBatchSize = 50

// ValidationKind distinguishes argument rejections from runtime failures.
type ValidationKind string

const (
	// KindBatchTooLarge is reported when more than MaxBatchSize ids are supplied.
	KindBatchTooLarge ValidationKind = "batch_too_large"
	// KindInvalidArguments covers every other argument shape problem.
	KindInvalidArguments ValidationKind = "invalid_arguments"
)

// ValidationError is an argument rejection raised before any remote call.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// ToRPCError converts the rejection into an invalid params error for the tool.
func (e *ValidationError) ToRPCError(toolName string) error {
	props := map[string]any{
		"kind":      string(e.Kind),
		"tool_name": toolName,
	}
	if e.Field != "" {
		props["field"] = e.Field
	}
	if e.Kind == KindBatchTooLarge {
		props["max_items"] = MaxBatchSize
	}
	return mcperror.NewInvalidArgumentsError(e.Error(), props)
}

// ValidateTrackIDs checks the shape of a batch request. An empty slice is
// valid; individual identifiers are not inspected.
func ValidateTrackIDs(ids []string) error {
	if len(ids) > MaxBatchSize {
		return &ValidationError{
			Kind:    KindBatchTooLarge,
			Field:   "trackIds",
			Message: fmt.Sprintf("at most %d track IDs are allowed per request, got %d", MaxBatchSize, len(ids)),
		}
	}
	return nil
}

// classifySchemaError maps a schema failure onto a ValidationKind.
func classifySchemaError(err *schema.ValidationError) *ValidationError {
	kind := KindInvalidArguments
	if err.Keyword == "maxItems" && strings.HasPrefix(err.InstancePath, "/trackIds") {
		kind = KindBatchTooLarge
	}
	field := strings.TrimPrefix(err.InstancePath, "/")
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Message: err.Message,
		Cause:   err,
	}
}
