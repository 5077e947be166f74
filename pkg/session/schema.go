package session

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// OptionsSchema is the JSON schema of a request.json snapshot.
const OptionsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["prompt", "model"],
  "properties": {
    "prompt": {"type": "string", "minLength": 1, "pattern": "\\S"},
    "file": {"type": ["array", "null"], "items": {"type": "string", "minLength": 1}},
    "model": {"type": "string", "minLength": 1},
    "models": {"type": "array", "items": {"type": "string", "minLength": 1}, "uniqueItems": true},
    "maxInput": {"type": "integer", "minimum": 0},
    "maxOutput": {"type": "integer", "minimum": 0},
    "system": {"type": "string"},
    "search": {"type": "boolean"},
    "silent": {"type": "boolean"},
    "filesReport": {"type": "boolean"},
    "mode": {"type": "string", "enum": ["", "api", "browser"]}
  }
}`

var optionsSchemaLoader = gojsonschema.NewStringLoader(OptionsSchema)

// ValidateOptions checks opts against OptionsSchema.
func ValidateOptions(opts RunOptions) error {
	if strings.TrimSpace(opts.Prompt) == "" {
		return ErrPromptRequired
	}

	result, err := gojsonschema.Validate(optionsSchemaLoader, gojsonschema.NewGoLoader(opts))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, "; "))
	}
	return nil
}
