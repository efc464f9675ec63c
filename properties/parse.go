package properties

import (
	"fmt"
	"unicode/utf8"

	"github.com/magiconair/properties"

	"github.com/c360/propstream/errors"
)

// Parse decodes properties-format text into a Store.
//
// Supported syntax is the standard flat format: key=value, key:value and
// key value separators, # and ! comments, blank lines, backslash line
// continuations and escapes. ${...} references are kept literally. When a key
// repeats, the last occurrence wins.
func Parse(data []byte) (*Store, error) {
	if !utf8.Valid(data) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: source is not valid UTF-8", errors.ErrParsingFailed),
			"properties", "Parse", "decode source")
	}

	loader := &properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
	}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, errors.WrapInvalid(errors.Join(errors.ErrParsingFailed, err),
			"properties", "Parse", "parse source")
	}

	return NewStore(p.Map()), nil
}
