// Package switchdrivers provides the concrete switch implementations hosted
// by switchd and a registry that builds them from configuration.
package switchdrivers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mitchellh/mapstructure"

	"github.com/larsks/switchd/internal/preferences"
	"github.com/larsks/switchd/internal/switchentity"
)

// Component is a switch bound to a driver.
type Component interface {
	// Switch returns the entity the driver writes through.
	Switch() *switchentity.Switch
	// Setup drives the switch to its boot-time state. Inversion and restore
	// mode must be configured before Setup is called.
	Setup() error
	Close() error
	String() string
}

// Factory creates switch components from per-switch driver options
type Factory interface {
	CreateDriver(name string, store preferences.Store, options map[string]any) (Component, error)
	ValidateConfig(options map[string]any) error
}

// Registry manages driver factories
type Registry struct {
	drivers map[string]Factory
	mu      sync.RWMutex
}

// NewRegistry creates a new driver registry
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Factory),
	}
}

// Register adds a driver factory to the registry
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDriverRegistered, name)
	}

	r.drivers[name] = factory
	return nil
}

func (r *Registry) factory(driverName string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.drivers[driverName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driverName)
	}
	return factory, nil
}

// Create creates a switch named name using the specified driver
func (r *Registry) Create(driverName, name string, store preferences.Store, options map[string]any) (Component, error) {
	factory, err := r.factory(driverName)
	if err != nil {
		return nil, err
	}
	return factory.CreateDriver(name, store, options)
}

// ValidateConfig validates options for the specified driver
func (r *Registry) ValidateConfig(driverName string, options map[string]any) error {
	factory, err := r.factory(driverName)
	if err != nil {
		return err
	}
	return factory.ValidateConfig(options)
}

// ListDrivers returns the sorted names of all registered drivers
func (r *Registry) ListDrivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry the built-in drivers register with.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a driver factory to the default registry
func Register(name string, factory Factory) error {
	return defaultRegistry.Register(name, factory)
}

// Create creates a switch using the default registry
func Create(driverName, name string, store preferences.Store, options map[string]any) (Component, error) {
	return defaultRegistry.Create(driverName, name, store, options)
}

// ValidateConfig validates options using the default registry
func ValidateConfig(driverName string, options map[string]any) error {
	return defaultRegistry.ValidateConfig(driverName, options)
}

// ListDrivers returns the names of all drivers in the default registry
func ListDrivers() []string {
	return defaultRegistry.ListDrivers()
}

// decodeOptions decodes a driver options map into out, rejecting unknown
// keys.
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := decoder.Decode(options); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// applyInitialState drives sw to the state its restore mode resolves to.
func applyInitialState(sw *switchentity.Switch) {
	if sw.InitialStateWithRestoreMode() {
		sw.TurnOn()
	} else {
		sw.TurnOff()
	}
}
