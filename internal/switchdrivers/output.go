package switchdrivers

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/larsks/switchd/internal/gpio"
	"github.com/larsks/switchd/internal/preferences"
	"github.com/larsks/switchd/internal/switchentity"
)

// BinaryOutput is an on/off hardware output.
type BinaryOutput interface {
	SetState(on bool) error
	Close() error
	String() string
}

// OutputSwitch drives a BinaryOutput. A write that fails leaves the
// published state unchanged.
type OutputSwitch struct {
	sw     *switchentity.Switch
	output BinaryOutput
}

// NewOutputSwitch creates a switch that writes through output.
func NewOutputSwitch(name string, store preferences.Store, output BinaryOutput) *OutputSwitch {
	s := &OutputSwitch{output: output}
	s.sw = switchentity.New(name, s, store)
	return s
}

// WriteState sets the output and publishes the written value.
func (s *OutputSwitch) WriteState(state bool) {
	if err := s.output.SetState(state); err != nil {
		log.Error().Err(err).Str("switch", s.sw.Name()).Msg("failed to write output")
		return
	}
	s.sw.PublishState(state)
}

func (s *OutputSwitch) Switch() *switchentity.Switch {
	return s.sw
}

// Setup drives the output to the restore-mode state.
func (s *OutputSwitch) Setup() error {
	applyInitialState(s.sw)
	return nil
}

// Close releases the output.
func (s *OutputSwitch) Close() error {
	return s.output.Close()
}

func (s *OutputSwitch) String() string {
	return fmt.Sprintf("output:%s(%s)", s.sw.ObjectID(), s.output)
}

// GPIOOutput is a BinaryOutput on a GPIO character device line.
type GPIOOutput struct {
	line *gpiocdev.Line
	pin  *gpio.PinSpec
}

// NewGPIOOutput requests the line described by pin as an output, initially
// inactive.
func NewGPIOOutput(pin *gpio.PinSpec) (*GPIOOutput, error) {
	line, err := gpiocdev.RequestLine(pin.Chip, pin.LineNum, gpiocdev.AsOutput(pin.Level(false)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLineRequestFailed, pin, err)
	}
	return &GPIOOutput{line: line, pin: pin}, nil
}

func (o *GPIOOutput) SetState(on bool) error {
	if err := o.line.SetValue(o.pin.Level(on)); err != nil {
		return fmt.Errorf("%w %s: %v", ErrOutputWrite, o.pin, err)
	}
	return nil
}

func (o *GPIOOutput) Close() error {
	return o.line.Close()
}

func (o *GPIOOutput) String() string {
	return o.pin.String()
}

// GPIOConfig represents gpio driver options
type GPIOConfig struct {
	Pin string `mapstructure:"pin"`
}

// GPIOFactory implements Factory for GPIO output switches
type GPIOFactory struct{}

func (f *GPIOFactory) parseConfig(options map[string]any) (*gpio.PinSpec, error) {
	var cfg GPIOConfig
	if err := decodeOptions(options, &cfg); err != nil {
		return nil, err
	}
	if cfg.Pin == "" {
		return nil, ErrMissingPin
	}
	return gpio.ParsePin(cfg.Pin)
}

// CreateDriver requests the configured GPIO line and wraps it in an
// OutputSwitch
func (f *GPIOFactory) CreateDriver(name string, store preferences.Store, options map[string]any) (Component, error) {
	pin, err := f.parseConfig(options)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gpio config: %w", err)
	}

	output, err := NewGPIOOutput(pin)
	if err != nil {
		return nil, err
	}

	return NewOutputSwitch(name, store, output), nil
}

// ValidateConfig validates gpio options without touching hardware
func (f *GPIOFactory) ValidateConfig(options map[string]any) error {
	_, err := f.parseConfig(options)
	return err
}

func init() {
	Register("gpio", &GPIOFactory{})
}
