package memory

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "type": "object",
  "properties": {
    "profile": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "number", "boolean", "null"]}
    },
    "preferences": {"type": ["array", "null"], "items": {"type": "string"}},
    "facts": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// validateDocument checks raw JSON against the memory document shape.
func validateDocument(raw []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.Wrap(err, "invalid memory JSON")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.Errorf("memory document does not match schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
