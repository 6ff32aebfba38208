package content

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// lessonsSchema describes the on-disk lesson content format: a mapping from
// lesson ID to {text, next}.
const lessonsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"patternProperties": {
		"^lesson_[0-9]+(_step_[0-9]+)?$": {
			"type": "object",
			"required": ["text"],
			"properties": {
				"text": {"type": "string", "minLength": 1},
				"next": {"type": ["string", "null"], "minLength": 1}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateSchema checks raw lesson JSON against the content schema.
func validateSchema(raw []byte) error {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(lessonsSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const schemaURL = "schema://lessons.json"
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	if compileErr != nil {
		return compileErr
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledSchema.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
