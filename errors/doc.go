// Package errors provides standardized error handling for propstream components.
//
// Errors fall into three classes: Transient (temporary, retryable), Invalid (bad
// input, do not retry) and Fatal (stop processing). Classification works on
// ClassifiedError values first, then on the standard sentinels below.
//
// # Wrapping
//
// All wrapping follows the "component.method: action failed: cause" format:
//
//	if err := loader.Load(path); err != nil {
//	    return errors.WrapFatal(err, "PropertiesFile", "Activate", "load properties")
//	}
//
// # Domain Sentinels
//
// The properties lifecycle uses four sentinels that map onto its failure modes:
//
//   - ErrSourceNotFound: source missing or not a regular file. Recovered locally,
//     the loader degrades to an empty store and only logs.
//   - ErrSourceRead: I/O or decoding error on an existing source. Hard failure.
//   - ErrPublish: serialization or transport error while replicating to the
//     shared cache. Hard failure, no rollback of the cache.
//   - ErrEnrichment: failure while stamping a record. Recovered per record by
//     routing it to the failure outcome.
//
// Join attaches a sentinel to a concrete cause so errors.Is matches both.
package errors
