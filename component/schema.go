package component

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/propstream/errors"
)

// JSONSchema renders the schema as a JSON Schema document. Unknown property
// types are left unconstrained.
func (s ConfigSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, prop := range s.Properties {
		p := map[string]any{}
		switch prop.Type {
		case "string":
			p["type"] = "string"
		case "int":
			p["type"] = "integer"
		case "number":
			p["type"] = "number"
		case "bool":
			p["type"] = "boolean"
		case "ports":
			p["type"] = "object"
		}
		if prop.Description != "" {
			p["description"] = prop.Description
		}
		if prop.Minimum != nil {
			p["minimum"] = *prop.Minimum
		}
		if prop.Maximum != nil {
			p["maximum"] = *prop.Maximum
		}
		props[name] = p
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		doc["required"] = s.Required
	}
	return doc
}

// ValidateConfig checks rawConfig against schema. An empty schema accepts
// anything; an empty config is validated as {}.
func ValidateConfig(schema ConfigSchema, rawConfig []byte) error {
	if len(schema.Properties) == 0 && len(schema.Required) == 0 {
		return nil
	}
	if len(rawConfig) == 0 {
		rawConfig = []byte("{}")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema.JSONSchema()),
		gojsonschema.NewBytesLoader(rawConfig),
	)
	if err != nil {
		return errors.WrapInvalid(errors.Join(errors.ErrInvalidConfig, err),
			"ConfigSchema", "ValidateConfig", "schema validation")
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
		"ConfigSchema", "ValidateConfig", "schema validation")
}
