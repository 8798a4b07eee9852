// file: internal/schema/name_rules.go
package schema

import (
	"regexp"

	"github.com/cockroachdb/errors"
)

// toolNamePattern is the tool name shape accepted by MCP hosts.
var toolNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateToolName reports whether name can be advertised as an MCP tool name.
func ValidateToolName(name string) error {
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	if len(name) > 64 {
		return errors.Newf("tool name %q exceeds 64 characters", name)
	}
	if !toolNamePattern.MatchString(name) {
		return errors.Newf("tool name %q may only contain letters, digits, '_' and '-'", name)
	}
	return nil
}
