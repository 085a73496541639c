// Package schemas validates interaction metadata blobs against JSON Schemas.
package schemas

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed metadata/*.json
var metadataFS embed.FS

// schemaFiles maps interaction types to their metadata schema.
// Types without an entry use the free-form schema.
var schemaFiles = map[string]string{
	"sent_invitation":     "metadata/sent_invitation.json",
	"viewed_invitation":   "metadata/invitation_event.json",
	"declined_invitation": "metadata/invitation_event.json",
	"accepted_invitation": "metadata/invitation_event.json",
	"sourced_to_job":      "metadata/sourced_to_job.json",
}

const freeFormSchema = "metadata/free_form.json"

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Kind   string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s metadata validation failed:", ve.Kind))
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %d. %s: %s;", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// MetadataValidator holds compiled metadata schemas
type MetadataValidator struct {
	byKind   map[string]*gojsonschema.Schema
	freeForm *gojsonschema.Schema
}

// NewMetadataValidator compiles every embedded schema.
func NewMetadataValidator() (*MetadataValidator, error) {
	compiled := make(map[string]*gojsonschema.Schema)
	load := func(path string) (*gojsonschema.Schema, error) {
		if s, ok := compiled[path]; ok {
			return s, nil
		}
		content, err := metadataFS.ReadFile(path)
		if err != nil {
			return nil, &SchemaLoadError{Path: path, Message: "read failed", Cause: err}
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(content))
		if err != nil {
			return nil, &SchemaLoadError{Path: path, Message: "compile failed", Cause: err}
		}
		compiled[path] = s
		return s, nil
	}

	v := &MetadataValidator{byKind: make(map[string]*gojsonschema.Schema)}
	for kind, path := range schemaFiles {
		s, err := load(path)
		if err != nil {
			return nil, err
		}
		v.byKind[kind] = s
	}
	freeForm, err := load(freeFormSchema)
	if err != nil {
		return nil, err
	}
	v.freeForm = freeForm
	return v, nil
}

// Validate checks metadata for the given interaction type. Nil metadata is
// validated as an empty object.
func (v *MetadataValidator) Validate(kind string, metadata map[string]any) error {
	schema, ok := v.byKind[kind]
	if !ok {
		schema = v.freeForm
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(metadata))
	if err != nil {
		return fmt.Errorf("failed to validate %s metadata: %w", kind, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Kind:   kind,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
