// Package properties loads flat key/value configuration from a properties file
// and serves it to in-process readers.
//
// A Loader holds exactly one current Store. Every load or clear builds a new
// Store and publishes it with a single atomic pointer swap, so readers never
// lock and never observe a half-built map:
//
//	loader := properties.NewLoader(logger)
//	store, err := loader.Load("/etc/app.properties")
//	if err != nil {
//	    // read, decode or parse failure; the previous store is still current
//	}
//	host, ok := loader.GetProperty("db.host")
//
// A missing, unreadable or non-regular source is not an error: it is logged
// and the loader holds an empty store.
package properties
