package repository

import (
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// todosSchema describes the blob the local repository persists.
const todosSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "completed", "createdAt"],
    "properties": {
      "id":          {"type": "string", "minLength": 1},
      "title":       {"type": "string"},
      "description": {"type": "string"},
      "completed":   {"type": "boolean"},
      "createdAt":   {"type": "string", "format": "date-time"},
      "updatedAt":   {"type": "string", "format": "date-time"}
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource("todos.schema.json", strings.NewReader(todosSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("todos.schema.json")
	})
	return schema, schemaErr
}

// validateBlob checks a decoded JSON document against todosSchema.
func validateBlob(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("stored todos do not match schema: %w", err)
	}
	return nil
}
