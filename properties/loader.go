package properties

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/c360/propstream/errors"
)

// Loader reads a properties source and holds the resulting snapshot.
// All methods are safe for concurrent use.
type Loader struct {
	current atomic.Pointer[Store]
	logger  *slog.Logger
}

// NewLoader creates a loader holding the empty store
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger}
	l.current.Store(EmptyStore())
	return l
}

// Load reads sourcePath and replaces the current snapshot.
//
// A path that does not exist, is not a regular file or cannot be opened
// leaves the loader holding the empty store and returns it without error.
// A failure while reading, decoding or parsing returns an error wrapping
// errors.ErrSourceRead and keeps the current snapshot.
func (l *Loader) Load(sourcePath string) (*Store, error) {
	f, err := l.open(sourcePath)
	if err != nil {
		l.logger.Error("Properties source not found or not readable",
			"path", sourcePath, "error", err)
		empty := EmptyStore()
		l.current.Store(empty)
		return empty, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, l.readFailure(sourcePath, err)
	}

	store, err := Parse(data)
	if err != nil {
		return nil, l.readFailure(sourcePath, err)
	}

	l.current.Store(store)
	l.logger.Info("Loaded properties", "path", sourcePath, "count", store.Len())
	return store, nil
}

func (l *Loader) open(sourcePath string) (*os.File, error) {
	if sourcePath == "" {
		return nil, errors.ErrSourceNotFound
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, errors.Join(errors.ErrSourceNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is %s", errors.ErrSourceNotFound, sourcePath, info.Mode().Type())
	}
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, errors.Join(errors.ErrSourceNotFound, err)
	}
	return f, nil
}

func (l *Loader) readFailure(sourcePath string, cause error) error {
	l.logger.Error("Failed to read properties source", "path", sourcePath, "error", cause)
	return errors.WrapFatal(errors.Join(errors.ErrSourceRead, cause),
		"Loader", "Load", fmt.Sprintf("read %s", sourcePath))
}

// Current returns the current snapshot
func (l *Loader) Current() *Store {
	return l.current.Load()
}

// Swap installs store as the current snapshot and returns the previous one.
// A nil store installs the empty store.
func (l *Loader) Swap(store *Store) *Store {
	if store == nil {
		store = EmptyStore()
	}
	return l.current.Swap(store)
}

// Clear replaces the current snapshot with the empty store
func (l *Loader) Clear() {
	l.current.Store(EmptyStore())
}

// GetProperty returns the value for key from the current snapshot
func (l *Loader) GetProperty(key string) (string, bool) {
	return l.Current().Get(key)
}

// GetAllProperties returns a copy of the current snapshot
func (l *Loader) GetAllProperties() map[string]string {
	return l.Current().All()
}
