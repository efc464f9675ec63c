package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is returned by MockKVStore for the put selected with FailOnPut.
var ErrInjected = errors.New("injected kv failure")

// MockKVStore is an in-memory key-value bucket with per-key revisions.
// Safe for concurrent use.
type MockKVStore struct {
	mu       sync.RWMutex
	data     map[string][]byte
	revision uint64
	puts     int
	failOn   int
	failErr  error
}

// NewMockKVStore creates a new mock KV store.
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{data: make(map[string][]byte)}
}

// FailOnPut makes the n-th put (1-based, counted from now on) return err,
// or ErrInjected when err is nil. n <= 0 disables injection.
func (kv *MockKVStore) FailOnPut(n int, err error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	kv.failOn = n
	kv.failErr = err
	kv.puts = 0
}

// Put stores value under key and returns the new revision.
func (kv *MockKVStore) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.puts++
	if kv.failOn > 0 && kv.puts == kv.failOn {
		return 0, kv.failErr
	}
	kv.revision++
	kv.data[key] = append([]byte(nil), value...)
	return kv.revision, nil
}

// Get returns the stored value as a string.
func (kv *MockKVStore) Get(key string) (string, bool) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	val, ok := kv.data[key]
	return string(val), ok
}

// Entries returns a copy of the bucket contents.
func (kv *MockKVStore) Entries() map[string]string {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	out := make(map[string]string, len(kv.data))
	for k, v := range kv.data {
		out[k] = string(v)
	}
	return out
}

// Revision returns the last revision handed out.
func (kv *MockKVStore) Revision() uint64 {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	return kv.revision
}
