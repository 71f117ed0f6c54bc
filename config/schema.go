package config

import (
	"encoding/json"

	"github.com/grovetools/vigil/schema"
	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for vigil.yml by reflecting Config.
// Unknown nested keys are rejected; unknown top-level keys are allowed so
// extensions such as `logging` validate.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
		DoNotReference:            true,
	}

	s := r.Reflect(&Config{})
	s.Title = "vigil configuration"
	s.Description = "Schema for vigil.yml"
	s.Version = "http://json-schema.org/draft-07/schema#"

	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	doc["additionalProperties"] = true

	return json.MarshalIndent(doc, "", "  ")
}

// NewSchemaValidator compiles the generated schema.
func NewSchemaValidator() (*schema.Validator, error) {
	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	return schema.NewValidator("vigil.schema.json", data)
}
