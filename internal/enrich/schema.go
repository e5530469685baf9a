package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/stockrx/importer/constants"
)

// BuildEnrichmentJSONSchema returns the schema (draft 2020-12 subset) the
// extraction-stage output must satisfy: every descriptive field non-empty,
// category and form restricted to the closed vocabularies.
func BuildEnrichmentJSONSchema() map[string]any {
	nonEmpty := func() map[string]any {
		return map[string]any{"type": "string", "minLength": 1}
	}
	props := map[string]any{
		"batch_id":              map[string]any{"type": "string"},
		"name":                  nonEmpty(),
		"category":              map[string]any{"type": "string", "enum": constants.Categories},
		"form":                  map[string]any{"type": "string", "enum": constants.Forms},
		"quantity_per_pack":     nonEmpty(),
		"cover_disease":         nonEmpty(),
		"symptoms":              nonEmpty(),
		"side_effects":          nonEmpty(),
		"instructions":          nonEmpty(),
		"localized_description": nonEmpty(),
	}
	required := []string{
		"batch_id", "name", "category", "form", "quantity_per_pack",
		"cover_disease", "symptoms", "side_effects", "instructions",
		"localized_description",
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
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
