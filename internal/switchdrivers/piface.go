package switchdrivers

import (
	"fmt"
	"sync"

	"github.com/larsks/switchd/internal/piface"
	"github.com/larsks/switchd/internal/preferences"
)

// DefaultSPIDev is the SPI port of a PiFace on the first chip select.
const DefaultSPIDev = "/dev/spidev0.0"

// PiFaceConfig represents piface driver options
type PiFaceConfig struct {
	SPIDev string `mapstructure:"spidev"`
	Output *uint  `mapstructure:"output"`
}

// PiFaceFactory implements Factory for PiFace output switches. Switches on
// the same SPI port share one board.
type PiFaceFactory struct {
	open func(spidev string) (*piface.PiFace, error)

	mu     sync.Mutex
	boards map[string]*piface.PiFace
}

// NewPiFaceFactory creates a factory that opens boards with open.
func NewPiFaceFactory(open func(spidev string) (*piface.PiFace, error)) *PiFaceFactory {
	return &PiFaceFactory{
		open:   open,
		boards: make(map[string]*piface.PiFace),
	}
}

func (f *PiFaceFactory) parseConfig(options map[string]any) (*PiFaceConfig, error) {
	cfg := &PiFaceConfig{}
	if err := decodeOptions(options, cfg); err != nil {
		return nil, err
	}
	if cfg.SPIDev == "" {
		cfg.SPIDev = DefaultSPIDev
	}
	if cfg.Output == nil {
		return nil, ErrMissingOutput
	}
	if *cfg.Output >= piface.NumberOfOutputs {
		return nil, fmt.Errorf("%w: %d (must be 0-%d)", piface.ErrInvalidPin, *cfg.Output, piface.NumberOfOutputs-1)
	}
	return cfg, nil
}

func (f *PiFaceFactory) board(spidev string) (*piface.PiFace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if pf, ok := f.boards[spidev]; ok && !pf.Closed() {
		return pf, nil
	}

	pf, err := f.open(spidev)
	if err != nil {
		return nil, err
	}
	f.boards[spidev] = pf
	return pf, nil
}

// CreateDriver wraps the configured PiFace output in an OutputSwitch
func (f *PiFaceFactory) CreateDriver(name string, store preferences.Store, options map[string]any) (Component, error) {
	cfg, err := f.parseConfig(options)
	if err != nil {
		return nil, fmt.Errorf("failed to parse piface config: %w", err)
	}

	pf, err := f.board(cfg.SPIDev)
	if err != nil {
		return nil, fmt.Errorf("failed to open PiFace on %s: %w", cfg.SPIDev, err)
	}

	output, err := pf.Output(uint8(*cfg.Output))
	if err != nil {
		return nil, err
	}

	return NewOutputSwitch(name, store, output), nil
}

// ValidateConfig validates piface options without touching hardware
func (f *PiFaceFactory) ValidateConfig(options map[string]any) error {
	_, err := f.parseConfig(options)
	return err
}

func init() {
	Register("piface", NewPiFaceFactory(piface.Open))
}
