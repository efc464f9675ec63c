// Package propertiesfile provides the properties_file storage component.
//
// The component reads a properties file once when it starts and holds the
// resulting key/value snapshot for in-process readers through the
// properties.Provider interface. When a cache bucket is configured the
// snapshot is also replicated into a NATS JetStream KV bucket so that other
// nodes can read the same configuration.
//
// # Activation
//
// Start loads the file, then publishes every entry to the bucket. The
// component is active only when both steps succeed:
//
//   - A missing or unreadable path is not an error. The component activates
//     with an empty configuration and logs the problem.
//   - A file that cannot be read or decoded fails activation and keeps the
//     previous snapshot.
//   - A failed publication fails activation and restores the snapshot held
//     before activation. Entries already written to the bucket stay there.
//
// Stop clears the held configuration.
//
// # Cache keys
//
// NATS KV keys are dot-separated tokens of letters, digits and "-/_=". By
// default each property key is stored as is, so a key such as "café" or
// "my key" fails activation. Setting cache_key_encoding to "base64" stores
// unpadded URL-safe base64 of every key instead; readers recover the property
// key with distcache.DecodeKey.
//
// # Configuration
//
//	{
//	    "property_file_location": "/etc/propstream/app.properties",
//	    "cache_bucket": "PROPERTIES",
//	    "cache_history": 1,
//	    "publish_attempts": 3,
//	    "cache_key_encoding": "none"
//	}
package propertiesfile
