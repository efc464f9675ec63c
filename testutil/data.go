package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// SampleProperties covers the properties syntax the loader accepts:
// comments, both separators, whitespace around keys and an empty value.
const SampleProperties = `# application settings
! legacy comment style
app.name = propstream
app.env: prod
region=us-west
empty=
`

// SamplePropertiesValues is what SampleProperties parses to.
var SamplePropertiesValues = map[string]string{
	"app.name": "propstream",
	"app.env":  "prod",
	"region":   "us-west",
	"empty":    "",
}

// TestPayloads are record payloads with no particular meaning.
var TestPayloads = []string{
	`{"id": 1, "value": "a"}`,
	`{"id": 2, "value": "b", "nested": {"k": true}}`,
	`[1, 2, 3]`,
	`"plain"`,
}

// WriteProperties writes content to app.properties in a fresh temp dir and
// returns its path.
func WriteProperties(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.properties")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	return path
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
