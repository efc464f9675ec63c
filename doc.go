// Package propstream loads key/value properties files, replicates them into a
// shared NATS KV cache, and enriches streamed records with their attributes.
//
// # Architecture
//
// propstream is built from managed components wired together by NATS:
//
//	┌─────────────────────────────────────┐
//	│        Component Manager            │  Component lifecycle
//	│  (initialize, start, stop, health)  │  Health aggregation
//	└─────────────────────────────────────┘
//	           ↓ manages
//	┌─────────────────────────────────────┐
//	│         Components                  │  properties_file service,
//	│   (storage, processor)              │  retrieve_properties processor
//	└─────────────────────────────────────┘
//	           ↓ communicate via
//	┌─────────────────────────────────────┐
//	│         NATS Messaging              │  Subjects, KV buckets
//	└─────────────────────────────────────┘
//
// # Properties Flow
//
// The properties_file service reads a properties source and publishes the
// parsed snapshot into a KV bucket. Enrichers resolve the service by name and
// merge its current snapshot into every record they see:
//
//	 example.properties
//	        │
//	        ↓ properties.Loader.Load
//	┌──────────────────┐   distcache.Distributor   ┌──────────────┐
//	│ properties_file  │ ────────────────────────→ │ KV PROPERTIES│
//	│    service       │                           └──────────────┘
//	└────────┬─────────┘
//	         │ properties.Provider
//	         ↓
//	┌──────────────────┐   records.in
//	│ retrieve_        │ ── records.enriched ──→ success
//	│ properties       │ ── records.failed ────→ failure
//	└──────────────────┘
//
// A snapshot is always replaced whole. Readers either see the previous
// snapshot or the new one, never a mix. When the cache rejects a publish the
// service restores the snapshot it held before activation.
//
// # Packages
//
//   - properties: parsing and the atomic snapshot loader
//   - distcache: cache client abstraction and the snapshot distributor
//   - processor/enrich: record enrichment and success/failure routing
//   - service/propertiesfile: the managed properties_file component
//   - service: component manager and shared dependencies
//   - component, componentregistry: component contracts and registration
//   - config, natsclient, metric, health: platform plumbing
//
// # Running
//
//	propstream --config configs/propstream.json
//	propstream --config configs/propstream.json --validate
//
// Prometheus metrics and the aggregated health report are served on the
// metrics port at /metrics and /health.
package propstream
