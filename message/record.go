// Package message defines the Record exchanged between propstream stages.
//
// A Record is an opaque payload plus a flat string attribute map. Stages may
// add or overwrite attributes but never interpret the payload.
package message

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/c360/propstream/errors"
)

// Record is the unit of data flowing through the pipeline
type Record struct {
	ID         string            `json:"id"`
	Source     string            `json:"source,omitempty"`
	Attributes map[string]string `json:"attributes"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Option is a functional option for configuring Record construction.
type Option func(*Record)

// WithTime sets a specific creation timestamp instead of using time.Now().
func WithTime(createdAt time.Time) Option {
	return func(r *Record) {
		r.CreatedAt = createdAt
	}
}

// WithID replaces the generated identifier.
func WithID(id string) Option {
	return func(r *Record) {
		r.ID = id
	}
}

// WithSource records which component produced the record.
func WithSource(source string) Option {
	return func(r *Record) {
		r.Source = source
	}
}

// NewRecord creates a record with a random UUID and a copy of attrs.
//
//	rec := message.NewRecord(payload, map[string]string{"env": "prod"})
func NewRecord(payload json.RawMessage, attrs map[string]string, opts ...Option) *Record {
	r := &Record{
		ID:         uuid.New().String(),
		Attributes: make(map[string]string, len(attrs)),
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	maps.Copy(r.Attributes, attrs)

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetAttributes returns a copy of the attribute map
func (r *Record) GetAttributes() map[string]string {
	return maps.Clone(r.Attributes)
}

// SetAttributes overlays attrs onto the record. Existing keys are overwritten,
// keys not named in attrs are kept.
func (r *Record) SetAttributes(attrs map[string]string) error {
	if r == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "Record", "SetAttributes", "nil record")
	}
	for key := range attrs {
		if key == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: empty attribute key", errors.ErrInvalidData),
				"Record", "SetAttributes", "attribute validation")
		}
	}
	if r.Attributes == nil {
		r.Attributes = make(map[string]string, len(attrs))
	}
	maps.Copy(r.Attributes, attrs)
	return nil
}

// Attribute returns a single attribute value
func (r *Record) Attribute(key string) (string, bool) {
	v, ok := r.Attributes[key]
	return v, ok
}

// Validate checks the record is well formed
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: missing id", errors.ErrInvalidData), "Record", "Validate", "id check")
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: id is not a uuid", errors.ErrInvalidData), "Record", "Validate", "id check")
	}
	if len(r.Payload) > 0 && !json.Valid(r.Payload) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: payload is not valid JSON", errors.ErrInvalidData), "Record", "Validate", "payload check")
	}
	return nil
}

// Marshal encodes the record as JSON
func (r *Record) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Record", "Marshal", "json encoding")
	}
	return data, nil
}

// UnmarshalRecord decodes and validates a JSON record
func UnmarshalRecord(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapInvalid(errors.Join(errors.ErrInvalidData, err),
			"Record", "UnmarshalRecord", "json decoding")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Attributes == nil {
		r.Attributes = map[string]string{}
	}
	return &r, nil
}
