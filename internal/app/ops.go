package app

import (
	"github.com/vk/optgridgo/internal/ops"
	"github.com/vk/optgridgo/internal/registry"
)

// registerOperations installs the built-in reference operations. The
// registry is frozen by the caller once registration is complete.
func registerOperations(reg *registry.Registry) error {
	baseCounting := ops.NewBaseCounting()
	if err := reg.Register(registry.Descriptor{
		Name:         baseCounting.Name(),
		Category:     registry.CategoryElementWise,
		Complexity:   baseCounting.Complexity(),
		Capabilities: []registry.Capability{registry.CapScalar, registry.CapSIMD, registry.CapParallel},
	}, baseCounting); err != nil {
		return err
	}

	gcContent := ops.NewGcContent()
	if err := reg.Register(registry.Descriptor{
		Name:         gcContent.Name(),
		Category:     registry.CategoryAggregation,
		Complexity:   gcContent.Complexity(),
		Capabilities: []registry.Capability{registry.CapScalar, registry.CapSIMD, registry.CapParallel},
	}, gcContent); err != nil {
		return err
	}

	return nil
}
