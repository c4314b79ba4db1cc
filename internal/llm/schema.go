package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildAnalysisJSONSchema returns the JSON-Schema (draft 2020-12 subset) the
// delegated extractor's response must satisfy: a single object of optional
// string fields plus a bounded snippet list. Nothing is required — absence
// means "not found".
func BuildAnalysisJSONSchema() map[string]any {
	strProp := map[string]any{"type": "string"}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"project_or_applicant": strProp,
			"mw":                   strProp,
			"acres":                strProp,
			"location":             strProp,
			"outcome_phrase":       strProp,
			"vote_line":            strProp,
			"ayes":                 strProp,
			"nays":                 strProp,
			"decision_factor_snippets": map[string]any{
				"type":     "array",
				"items":    strProp,
				"maxItems": 3,
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
