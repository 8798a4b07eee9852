// Package schema compiles tool input schemas and validates tool arguments against them.
// file: internal/schema/validator.go
package schema

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ArgumentValidator holds one compiled schema per tool.
type ArgumentValidator struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
	logger  logging.Logger
}

// NewArgumentValidator creates an empty validator.
func NewArgumentValidator(logger logging.Logger) *ArgumentValidator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &ArgumentValidator{
		schemas: make(map[string]*jsonschema.Schema),
		logger:  logger.WithField("component", "schema_validator"),
	}
}

// Register compiles schemaJSON under name, replacing any earlier schema for that name.
func (v *ArgumentValidator) Register(name string, schemaJSON []byte) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	resourceID := "tool://" + name + "/input.json"
	if err := compiler.AddResource(resourceID, bytes.NewReader(schemaJSON)); err != nil {
		return NewValidationError(ErrSchemaCompileFailed, "failed to add schema resource", err).
			WithContext("schema", name)
	}
	compiled, err := compiler.Compile(resourceID)
	if err != nil {
		return NewValidationError(ErrSchemaCompileFailed, "failed to compile schema", err).
			WithContext("schema", name)
	}

	v.mu.Lock()
	v.schemas[name] = compiled
	v.mu.Unlock()
	v.logger.Debug("Compiled input schema.", "schema", name)
	return nil
}

// HasSchema reports whether a schema is registered under name.
func (v *ArgumentValidator) HasSchema(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.schemas[name]
	return ok
}

// Validate checks raw JSON arguments against the schema registered under name.
// Missing or null arguments are validated as an empty object.
func (v *ArgumentValidator) Validate(name string, args json.RawMessage) error {
	v.mu.RLock()
	compiled, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return NewValidationError(ErrSchemaNotFound, "no schema registered", nil).WithContext("schema", name)
	}

	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return NewValidationError(ErrInvalidJSONFormat, "arguments are not valid JSON", err).WithContext("schema", name)
	}

	if err := compiled.Validate(doc); err != nil {
		var valErr *jsonschema.ValidationError
		if errors.As(err, &valErr) {
			return convertValidationError(valErr, name)
		}
		return NewValidationError(ErrValidationFailed, "validation failed", err).WithContext("schema", name)
	}
	return nil
}
