// file: internal/mcperror/properties.go
package mcperror

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// withProperties attaches structured key/value data to an error.
type withProperties struct {
	cause error
	props map[string]any
}

func (e *withProperties) Error() string                 { return e.cause.Error() }
func (e *withProperties) Unwrap() error                 { return e.cause }
func (e *withProperties) Cause() error                  { return e.cause }
func (e *withProperties) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// SafeDetails keeps property keys visible in redacted reports.
func (e *withProperties) SafeDetails() []string {
	keys := make([]string, 0, len(e.props))
	for k := range e.props {
		keys = append(keys, k)
	}
	return keys
}

// WithProperty wraps err with alternating key/value pairs.
// A trailing key without a value is ignored.
func WithProperty(err error, kv ...any) error {
	if err == nil {
		return nil
	}
	props := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		props[key] = kv[i+1]
	}
	return &withProperties{cause: err, props: props}
}

// withPropertyMap wraps err with every entry of props.
func withPropertyMap(err error, props map[string]any) error {
	if len(props) == 0 {
		return err
	}
	copied := make(map[string]any, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return &withProperties{cause: err, props: copied}
}

// TryGetProperty returns the outermost value stored under key in err's chain.
func TryGetProperty(err error, key string) (any, bool) {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if p, ok := e.(*withProperties); ok {
			if v, found := p.props[key]; found {
				return v, true
			}
		}
	}
	return nil, false
}

// GetErrorProperties extracts all properties from an error chain.
// Outer wrappers take precedence over inner ones.
func GetErrorProperties(err error) map[string]any {
	properties := make(map[string]any)
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		p, ok := e.(*withProperties)
		if !ok {
			continue
		}
		for k, v := range p.props {
			if _, exists := properties[k]; !exists {
				properties[k] = v
			}
		}
	}
	return properties
}
