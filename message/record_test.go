package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/propstream/errors"
)

func TestNewRecord(t *testing.T) {
	attrs := map[string]string{"env": "prod"}
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := NewRecord(json.RawMessage(`{"v":1}`), attrs, WithTime(created), WithSource("test"))

	require.NoError(t, rec.Validate())
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, "test", rec.Source)

	attrs["env"] = "mutated"
	v, ok := rec.Attribute("env")
	assert.True(t, ok)
	assert.Equal(t, "prod", v, "constructor copies attributes")
}

func TestRecord_SetAttributesOverlay(t *testing.T) {
	rec := NewRecord(nil, map[string]string{"env": "prod", "owner": "ops"})

	require.NoError(t, rec.SetAttributes(map[string]string{"region": "us-east", "env": "staging"}))

	assert.Equal(t, map[string]string{
		"env":    "staging",
		"owner":  "ops",
		"region": "us-east",
	}, rec.GetAttributes())

	err := rec.SetAttributes(map[string]string{"": "x"})
	assert.ErrorIs(t, err, errors.ErrInvalidData)
	_, ok := rec.Attribute("")
	assert.False(t, ok, "rejected overlay writes nothing")
}

func TestRecord_GetAttributesIsCopy(t *testing.T) {
	rec := NewRecord(nil, map[string]string{"a": "1"})
	got := rec.GetAttributes()
	got["a"] = "2"

	v, _ := rec.Attribute("a")
	assert.Equal(t, "1", v)
}

func TestRecord_SetAttributesOnZeroValue(t *testing.T) {
	var rec Record
	require.NoError(t, rec.SetAttributes(map[string]string{"a": "1"}))
	assert.Equal(t, map[string]string{"a": "1"}, rec.GetAttributes())

	var nilRec *Record
	assert.Error(t, nilRec.SetAttributes(map[string]string{"a": "1"}))
}

func TestUnmarshalRecord(t *testing.T) {
	rec := NewRecord(json.RawMessage(`{"reading":42}`), map[string]string{"sensor": "s1"})
	data, err := rec.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.Equal(t, rec.Attributes, decoded.Attributes)
	assert.JSONEq(t, `{"reading":42}`, string(decoded.Payload))
}

func TestUnmarshalRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `not json`},
		{"missing id", `{"attributes":{}}`},
		{"bad id", `{"id":"abc"}`},
		{"wrong attribute type", `{"id":"6f1c1b9e-8d1f-4b43-9a4e-2f3c0c1d2e3f","attributes":{"a":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalRecord([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidData)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestUnmarshalRecord_DefaultsAttributes(t *testing.T) {
	decoded, err := UnmarshalRecord([]byte(`{"id":"6f1c1b9e-8d1f-4b43-9a4e-2f3c0c1d2e3f"}`))
	require.NoError(t, err)
	assert.NotNil(t, decoded.Attributes)
}
