package synthesis

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"tidybox/internal/textutil"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names match the prompt template names.
const (
	schemaDiscovery     = "discovery"
	schemaSynthesis     = "synthesis"
	schemaActionability = "actionability"
)

// Validator checks model responses against the embedded JSON Schemas.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: map[string]*gojsonschema.Schema{}}
	for _, name := range []string{schemaDiscovery, schemaSynthesis, schemaActionability} {
		data, err := schemaFS.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// maxReportedViolations caps how many schema errors are quoted in a message.
const maxReportedViolations = 3

// Decode validates content against the named schema and unmarshals it into
// out. The content must be a bare JSON object; nothing is trimmed from it
// beyond surrounding whitespace.
func (v *Validator) Decode(name, content string, out any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	body := strings.TrimSpace(content)
	if !strings.HasPrefix(body, "{") || !json.Valid([]byte(body)) {
		return fmt.Errorf("%w: %s: response is not a JSON object: %s", ErrSchemaViolation, name, snippet(body))
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaViolation, name, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, maxReportedViolations)
		for i, desc := range result.Errors() {
			if i == maxReportedViolations {
				problems = append(problems, fmt.Sprintf("and %d more", len(result.Errors())-i))
				break
			}
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrSchemaViolation, name, strings.Join(problems, "; "))
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaViolation, name, err)
	}
	return nil
}

func snippet(s string) string {
	const limit = 80
	s = strings.Join(strings.Fields(s), " ")
	if short := textutil.Truncate(s, limit); short != s {
		return fmt.Sprintf("%q...", short)
	}
	return fmt.Sprintf("%q", s)
}
