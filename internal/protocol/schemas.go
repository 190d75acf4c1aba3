package protocol

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schemas holds the compiled request schemas. Compilation happens once at
// startup; validation is per-request.
type Schemas struct {
	Hello     *jsonschema.Schema
	Derive    *jsonschema.Schema
	Aggregate *jsonschema.Schema
}

func CompileSchemas(dir string) (*Schemas, error) {
	compile := func(name string) (*jsonschema.Schema, error) {
		s, err := jsonschema.Compile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		return s, nil
	}

	var s Schemas
	var err error
	if s.Hello, err = compile("hello.schema.json"); err != nil {
		return nil, err
	}
	if s.Derive, err = compile("derive.schema.json"); err != nil {
		return nil, err
	}
	if s.Aggregate, err = compile("aggregate.schema.json"); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateRaw checks raw JSON against one of the compiled schemas.
func ValidateRaw(schema *jsonschema.Schema, raw []byte) error {
	if schema == nil {
		return nil // validation disabled
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}
