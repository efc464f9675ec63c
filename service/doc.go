// Package service orchestrates propstream components.
//
// ComponentManager creates the enabled components named in configuration
// through the component registry and drives their lifecycle:
//
//	Initialize()  - create components and call their Initialize
//	Start(ctx)    - start storage components, then processors
//	Stop(timeout) - stop components in reverse start order
//
// Storage components start first because they hold the configuration that
// processors read. A component whose Start fails is marked
// component.StateFailed and reported in the error returned from Start; the
// remaining components are still started so that the caller decides whether
// to shut down.
package service
