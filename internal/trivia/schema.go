package trivia

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const responseSchemaURL = "schema://opentdb-response.json"

// responseSchema describes the subset of the OpenTDB payload we rely on.
const responseSchema = `{
  "type": "object",
  "required": ["response_code", "results"],
  "properties": {
    "response_code": {"type": "integer", "minimum": 0},
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "correct_answer", "incorrect_answers"],
        "properties": {
          "category": {"type": "string"},
          "type": {"type": "string"},
          "difficulty": {"type": "string"},
          "question": {"type": "string"},
          "correct_answer": {"type": "string"},
          "incorrect_answers": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(responseSchema), &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(responseSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(responseSchemaURL)
	})
	return compiled, compileErr
}

// validatePayload checks raw provider JSON against responseSchema.
func validatePayload(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
