// Package enrich provides the retrieve_properties processor, which stamps each
// passing record with the key/value pairs held by a properties provider.
//
// # Enrichment
//
// Enricher is independent of any transport. For each record it reads the
// provider's current snapshot and overlays it on the record's attributes:
//
//   - Existing attributes not named in the snapshot are kept.
//   - Attributes named in the snapshot take the snapshot's value.
//   - An empty snapshot passes the record through unchanged.
//
// Every record is routed to exactly one of RouteSuccess or RouteFailure. A
// failure while setting attributes, including a panic, routes the record to
// RouteFailure and never reaches the caller.
//
// # Processor
//
// The retrieve_properties component subscribes to a NATS subject carrying
// message.Record JSON, enriches records on a worker pool and publishes them to
// the success or failure subject. Payloads that cannot be decoded are
// published unchanged to the failure subject.
//
//	{
//	    "property_file_service": "app-config",
//	    "ports": {
//	        "inputs":  [{"name": "nats_input", "subject": "records.in"}],
//	        "outputs": [
//	            {"name": "success", "subject": "records.enriched"},
//	            {"name": "failure", "subject": "records.failed"}
//	        ]
//	    },
//	    "workers": 4,
//	    "queue_size": 256
//	}
//
// property_file_service names the properties_file instance to read from. That
// instance must be started before the processor.
package enrich
