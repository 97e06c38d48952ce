package switchdrivers

import (
	"fmt"

	"github.com/larsks/switchd/internal/preferences"
	"github.com/larsks/switchd/internal/switchentity"
)

// VirtualConfig represents dummy driver options
type VirtualConfig struct {
	Optimistic bool `mapstructure:"optimistic"`
}

// VirtualSwitch is a switch with no hardware behind it. Every write is
// published back as the new state.
type VirtualSwitch struct {
	sw         *switchentity.Switch
	optimistic bool
}

// NewVirtualSwitch creates a virtual switch. An optimistic switch reports
// its state as assumed.
func NewVirtualSwitch(name string, store preferences.Store, optimistic bool) *VirtualSwitch {
	vs := &VirtualSwitch{optimistic: optimistic}
	vs.sw = switchentity.New(name, vs, store)
	return vs
}

// WriteState publishes state unchanged.
func (vs *VirtualSwitch) WriteState(state bool) {
	vs.sw.PublishState(state)
}

func (vs *VirtualSwitch) HasAssumedState() bool {
	return vs.optimistic
}

func (vs *VirtualSwitch) Switch() *switchentity.Switch {
	return vs.sw
}

// Setup drives the switch to its restore-mode state.
func (vs *VirtualSwitch) Setup() error {
	applyInitialState(vs.sw)
	return nil
}

func (vs *VirtualSwitch) Close() error {
	return nil
}

func (vs *VirtualSwitch) String() string {
	return fmt.Sprintf("dummy:%s", vs.sw.ObjectID())
}

// VirtualFactory implements Factory for dummy drivers
type VirtualFactory struct{}

// CreateDriver creates a new virtual switch
func (f *VirtualFactory) CreateDriver(name string, store preferences.Store, options map[string]any) (Component, error) {
	var cfg VirtualConfig
	if err := decodeOptions(options, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse dummy config: %w", err)
	}
	return NewVirtualSwitch(name, store, cfg.Optimistic), nil
}

// ValidateConfig validates dummy options
func (f *VirtualFactory) ValidateConfig(options map[string]any) error {
	var cfg VirtualConfig
	return decodeOptions(options, &cfg)
}

func init() {
	Register("dummy", &VirtualFactory{})
}
