package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

// Schema is a compiled JSON Schema for one request body.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile compiles a JSON Schema document. It panics on a malformed
// schema, so schemas are compiled once at package init.
func MustCompile(name, doc string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// Validate checks body against the schema. Violations wrap ErrInvalidInput
// and list every failing field.
func (s *Schema) Validate(body []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%s: malformed JSON: %w", s.name, svcErr.ErrInvalidInput)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return fmt.Errorf("%s: %s: %w", s.name, strings.Join(errs, "; "), svcErr.ErrInvalidInput)
}
