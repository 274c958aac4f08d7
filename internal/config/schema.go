package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed scene.schema.json
var sceneSchema string

const schemaURL = "scene.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Schema returns the compiled scene schema.
func Schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString(schemaURL, sceneSchema)
	})
	return schema, schemaErr
}

// validateDocument checks a YAML document against the scene schema before it
// is decoded, so typos and out-of-range values are reported with their path.
func validateDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}
	if doc == nil {
		return nil
	}
	// the validator expects JSON values
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parse scene: %w", err)
	}

	s, err := Schema()
	if err != nil {
		return fmt.Errorf("compile scene schema: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("invalid scene: %w", err)
	}
	return nil
}
