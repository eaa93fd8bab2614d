// Package validate treats LLM output as untrusted external input: it extracts
// the JSON object out of whatever the model returned, validates it against the
// Analysis schema, and drives the bounded retry-with-correction loop.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mhdc11/Proyecto-IA-Sinensia/internal/analysis"
)

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func analysisSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analysis.json", bytes.NewReader(analysis.SchemaJSON())); err != nil {
			schemaErr = fmt.Errorf("failed to load analysis schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("analysis.json")
	})
	return compiledSchema, schemaErr
}

// ExtractJSONBlock slices the JSON object out of raw model output: everything
// between the first '{' and the last '}'. Prose and markdown code fences
// around the object are ignored rather than treated as fatal.
func ExtractJSONBlock(raw string) (string, bool) {
	first := strings.IndexByte(raw, '{')
	last := strings.LastIndexByte(raw, '}')
	if first == -1 || last == -1 || first >= last {
		return "", false
	}
	return raw[first : last+1], true
}

// ParseAndValidate extracts, parses and schema-validates one model response.
// It returns a structurally complete Analysis (nil slices replaced with empty
// ones) or an error describing exactly what failed, suitable for a correction
// prompt.
func ParseAndValidate(raw string) (*analysis.Analysis, error) {
	block, ok := ExtractJSONBlock(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in model output (expected content between '{' and '}')")
	}

	var doc any
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON in model output: %w", err)
	}

	schema, err := analysisSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("model output does not match the analysis schema: %w", err)
	}

	var a analysis.Analysis
	if err := json.Unmarshal([]byte(block), &a); err != nil {
		return nil, fmt.Errorf("failed to decode validated analysis: %w", err)
	}
	a.EnsureDefaults()
	return &a, nil
}
