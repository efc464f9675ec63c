// Package testutil provides in-memory test doubles and fixtures shared by
// propstream package tests.
//
// MockNATSClient records publications per subject and delivers them to
// in-process subscribers. It satisfies the publish side of natsclient.Client
// used by processors.
//
// MockKVStore satisfies distcache.KVPutter. It keeps revisions per key and can
// be told to fail a given put, which is how publish aborts are exercised
// without a NATS server.
//
// ConfigBuilder assembles types.ComponentConfigs for component manager tests.
//
// Use real NATS through natsclient.NewTestClient for integration tests; the
// mocks here are for unit tests only.
package testutil
