package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/errors"
)

func testSchema() ConfigSchema {
	return ConfigSchema{
		Properties: map[string]PropertySchema{
			"location": {Type: "string", Description: "file"},
			"attempts": {Type: "int", Minimum: IntPtr(1), Maximum: IntPtr(10)},
			"rate":     {Type: "number", Minimum: IntPtr(0)},
			"enabled":  {Type: "bool"},
			"ports":    {Type: "ports"},
		},
		Required: []string{"location"},
	}
}

func TestConfigSchema_JSONSchema(t *testing.T) {
	doc := testSchema().JSONSchema()

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []string{"location"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Equal(t, "integer", props["attempts"].(map[string]any)["type"])
	assert.Equal(t, 10, props["attempts"].(map[string]any)["maximum"])
	assert.Equal(t, "boolean", props["enabled"].(map[string]any)["type"])
	assert.Equal(t, "object", props["ports"].(map[string]any)["type"])

	_, hasRequired := ConfigSchema{}.JSONSchema()["required"]
	assert.False(t, hasRequired)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"location": "/etc/app.properties", "attempts": 3, "rate": 2.5}`, false},
		{"unknown keys allowed", `{"location": "x", "extra": true}`, false},
		{"missing required", `{"attempts": 3}`, true},
		{"empty config", ``, true},
		{"below minimum", `{"location": "x", "attempts": 0}`, true},
		{"above maximum", `{"location": "x", "attempts": 11}`, true},
		{"fractional integer", `{"location": "x", "attempts": 1.5}`, true},
		{"wrong type", `{"location": 5}`, true},
		{"malformed", `{"location":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(testSchema(), []byte(tt.raw))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestValidateConfig_EmptySchemaAcceptsAnything(t *testing.T) {
	assert.NoError(t, ValidateConfig(ConfigSchema{}, []byte(`{"anything": 1}`)))
	assert.NoError(t, ValidateConfig(ConfigSchema{}, nil))
}
