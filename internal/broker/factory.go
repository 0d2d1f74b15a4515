package broker

import (
	"fmt"

	apperrors "github.com/ravitejakamalapuram/copytradepro-sub014/internal/errors"
)

// Factory instantiates broker adapters by key from an injected registry.
type Factory struct {
	registry *Registry
}

// NewFactory creates a factory over the given registry.
func NewFactory(registry *Registry) *Factory {
	return &Factory{registry: registry}
}

// CreateBroker returns a ready-to-use adapter for the broker key. Each call
// may return a fresh instance; session state lives on the instance. An
// unregistered key fails with ErrUnknownBroker.
func (f *Factory) CreateBroker(key string) (Broker, error) {
	plugin, ok := f.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)",
			apperrors.ErrUnknownBroker, key, f.registry.AvailableBrokers())
	}
	return plugin.New(), nil
}
