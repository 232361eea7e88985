package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of altsync config files
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&Config{})
	schema.Title = "altsync configuration"
	schema.Description = "Schema for altsync.yml / altsync.toml."

	// Every key has a default
	schema.Required = nil
	if news, ok := schema.Definitions["NewsConfig"]; ok {
		news.Required = nil
	}
	return schema
}

// SchemaJSON renders Schema as indented JSON
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return append(data, '\n'), nil
}
