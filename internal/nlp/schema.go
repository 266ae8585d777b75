package nlp

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed classify_schema.json
var classifySchemaJSON string

// classifySchema validates the model's raw JSON answer before it is
// unmarshalled. Compiled once at startup; MustCompileString panics only on a
// broken embedded schema, which is a programming error.
var classifySchema = jsonschema.MustCompileString(
	"classify_schema.json",
	classifySchemaJSON,
)

// validateRaw checks the decoded model answer against the classification
// schema. It wraps schema failures in ErrMalformedOutput so callers can
// handle them uniformly with JSON parse failures.
func validateRaw(decoded any) error {
	if err := classifySchema.Validate(decoded); err != nil {
		msg := err.Error()
		if idx := strings.IndexByte(msg, '\n'); idx > 0 {
			msg = msg[:idx]
		}
		return fmt.Errorf("%w: %s", ErrMalformedOutput, msg)
	}
	return nil
}
