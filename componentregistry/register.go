// Package componentregistry registers every propstream component factory.
package componentregistry

import (
	"errors"

	"github.com/c360/propstream/component"
	pkgerrors "github.com/c360/propstream/errors"
	"github.com/c360/propstream/processor/enrich"
	"github.com/c360/propstream/service/propertiesfile"
)

// Register registers all propstream components with the provided registry:
//   - properties_file storage (properties file loader with KV replication)
//   - retrieve_properties processor (record attribute enrichment)
func Register(registry *component.Registry) error {
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := propertiesfile.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "properties_file component registration")
	}

	if err := enrich.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "retrieve_properties component registration")
	}

	return nil
}
