package properties

import (
	"maps"
	"slices"
)

// ConfigEntry is a single key/value pair
type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store is an immutable snapshot of configuration. It is safe for concurrent
// use because nothing mutates it after construction.
type Store struct {
	values map[string]string
}

var emptyStore = &Store{values: map[string]string{}}

// EmptyStore returns the shared empty snapshot
func EmptyStore() *Store {
	return emptyStore
}

// NewStore builds a snapshot from a copy of values
func NewStore(values map[string]string) *Store {
	if len(values) == 0 {
		return emptyStore
	}
	return &Store{values: maps.Clone(values)}
}

// Get returns the value for key
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// All returns a copy of the full mapping
func (s *Store) All() map[string]string {
	return maps.Clone(s.values)
}

// Len returns the number of entries
func (s *Store) Len() int {
	return len(s.values)
}

// Keys returns the keys in sorted order
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Entries returns the entries ordered by key
func (s *Store) Entries() []ConfigEntry {
	entries := make([]ConfigEntry, 0, len(s.values))
	for _, k := range s.Keys() {
		entries = append(entries, ConfigEntry{Key: k, Value: s.values[k]})
	}
	return entries
}

// Provider is implemented by anything that serves the current configuration
// to readers.
type Provider interface {
	// GetProperty returns the value for key from the current snapshot
	GetProperty(key string) (string, bool)
	// GetAllProperties returns a copy of the current snapshot, never nil
	GetAllProperties() map[string]string
}
