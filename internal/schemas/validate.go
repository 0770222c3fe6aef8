// Package schemas checks model output against embedded JSON Schemas.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed job_postings.schema.json
var jobPostingsSchema []byte

// JobPostingsSchemaName identifies the embedded job postings schema in errors
const JobPostingsSchemaName = "job_postings.schema.json"

// maxReported caps the violations listed in ValidationError.Error
const maxReported = 5

// FieldError is one schema violation
type FieldError struct {
	Field   string // dotted path, "(root)" for the document itself
	Rule    string // failing keyword, e.g. "required", "invalid_type"
	Message string
}

// ValidationError lists the violations found in a document
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation failed against %s:", ve.Schema)
	for i, fe := range ve.Errors {
		if i == maxReported {
			fmt.Fprintf(&sb, " (and %d more)", len(ve.Errors)-maxReported)
			break
		}
		fmt.Fprintf(&sb, " [%s: %s]", fe.Field, fe.Message)
	}
	return sb.String()
}

// SchemaLoadError means the schema itself could not be compiled
type SchemaLoadError struct {
	Schema string
	Cause  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Schema, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validator is a compiled schema, safe for concurrent use
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schema once for repeated validation
func Compile(name string, schema []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, &SchemaLoadError{Schema: name, Cause: err}
	}
	return &Validator{name: name, schema: s}, nil
}

// Validate checks doc against the schema. Malformed JSON is reported as a
// violation at the root.
func (v *Validator) Validate(doc []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return &ValidationError{
			Schema: v.name,
			Errors: []FieldError{{Field: "(root)", Rule: "json", Message: err.Error()}},
		}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: v.name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{
			Field:   field,
			Rule:    desc.Type(),
			Message: desc.Description(),
		})
	}
	return ve
}

var jobPostings = sync.OnceValues(func() (*Validator, error) {
	return Compile(JobPostingsSchemaName, jobPostingsSchema)
})

// ValidateJobPostings validates a recovered JSON array of job postings
func ValidateJobPostings(doc []byte) error {
	v, err := jobPostings()
	if err != nil {
		return err
	}
	return v.Validate(doc)
}
