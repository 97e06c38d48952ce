// Package piface drives the output relays and LEDs of a PiFace Digital
// board, an MCP23S17 port expander on the SPI bus.
package piface

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MCP23S17 register addresses
const (
	GPIOA  = 0x12 // GPIO port A register
	GPIOB  = 0x13 // GPIO port B register
	IODIRA = 0x00 // I/O direction register A
	IODIRB = 0x01 // I/O direction register B
	IOCON  = 0x0A // I/O config
	GPPUB  = 0x0D // Port B pullups
)

// MCP23S17 SPI opcodes
const (
	OpcodeWrite = 0x40
	OpcodeRead  = 0x41
)

// NumberOfOutputs is the width of output port A.
const NumberOfOutputs = 8

// Conn is the part of an SPI connection the board needs.
type Conn interface {
	Tx(w, r []byte) error
}

// PiFace is one board. Outputs on the same board share it; the board is
// closed when the last output is closed.
type PiFace struct {
	name   string
	conn   Conn
	closer io.Closer

	mu     sync.Mutex
	refs   int
	closed bool
}

// Open connects to the board on the named SPI port (e.g. /dev/spidev0.0)
// and initializes its registers.
func Open(spiPortName string) (*PiFace, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPeriphInitFailed, err)
	}

	port, err := spireg.Open(spiPortName)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrSPIPortOpen, spiPortName, err)
	}

	conn, err := port.Connect(1*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: %v", ErrSPIConnect, err)
	}

	pf := New(spiPortName, conn, port)
	if err := pf.Init(); err != nil {
		port.Close() //nolint:errcheck
		return nil, err
	}

	log.Info().Str("spidev", spiPortName).Msg("opened piface device")
	return pf, nil
}

// New wraps an existing connection. closer, if not nil, is closed with the
// board.
func New(name string, conn Conn, closer io.Closer) *PiFace {
	return &PiFace{name: name, conn: conn, closer: closer}
}

// Init configures port A as outputs and port B as pulled-up inputs.
func (pf *PiFace) Init() error {
	initSequence := []struct {
		reg   uint8
		value uint8
		desc  string
	}{
		{IOCON, 0x08, "configure IOCON"},
		{IODIRA, 0x00, "set port A as outputs"},
		{IODIRB, 0xFF, "set port B as inputs"},
		{GPPUB, 0xFF, "enable port B pullups"},
	}

	for _, step := range initSequence {
		if err := pf.writeRegister(step.reg, step.value); err != nil {
			return fmt.Errorf("%s: %w", step.desc, err)
		}
	}
	return nil
}

func validatePin(pin uint8) error {
	if pin >= NumberOfOutputs {
		return fmt.Errorf("%w: %d (must be 0-7)", ErrInvalidPin, pin)
	}
	return nil
}

func setBit(value uint8, pin uint8, state bool) uint8 {
	if state {
		return value | (1 << pin)
	}
	return value &^ (1 << pin)
}

func (pf *PiFace) writeRegister(reg, value uint8) error {
	write := []byte{OpcodeWrite, reg, value}
	read := make([]byte, len(write))

	if err := pf.conn.Tx(write, read); err != nil {
		return fmt.Errorf("%w 0x%02x: %v", ErrRegisterWrite, reg, err)
	}
	return nil
}

func (pf *PiFace) readRegister(reg uint8) (uint8, error) {
	write := []byte{OpcodeRead, reg, 0x00}
	read := make([]byte, len(write))

	if err := pf.conn.Tx(write, read); err != nil {
		return 0, fmt.Errorf("%w 0x%02x: %v", ErrRegisterRead, reg, err)
	}
	return read[2], nil
}

// ReadOutputs returns the output latch of port A.
func (pf *PiFace) ReadOutputs() (uint8, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.readOutputs()
}

func (pf *PiFace) readOutputs() (uint8, error) {
	if pf.closed {
		return 0, ErrClosed
	}
	val, err := pf.readRegister(GPIOA)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrReadOutputs, err)
	}
	return val, nil
}

// WriteOutput sets a single output, leaving the others untouched.
func (pf *PiFace) WriteOutput(pin uint8, on bool) error {
	if err := validatePin(pin); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}

	pf.mu.Lock()
	defer pf.mu.Unlock()

	outputs, err := pf.readOutputs()
	if err != nil {
		return fmt.Errorf("%w pin %d: %v", ErrWriteOutput, pin, err)
	}
	if err := pf.writeRegister(GPIOA, setBit(outputs, pin, on)); err != nil {
		return fmt.Errorf("%w pin %d: %v", ErrWriteOutput, pin, err)
	}
	return nil
}

// Output returns a handle for one output pin. Each handle holds a
// reference on the board until it is closed.
func (pf *PiFace) Output(pin uint8) (*Output, error) {
	if err := validatePin(pin); err != nil {
		return nil, err
	}

	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.closed {
		return nil, ErrClosed
	}
	pf.refs++
	return &Output{pf: pf, pin: pin}, nil
}

// Closed reports whether the board has been released.
func (pf *PiFace) Closed() bool {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.closed
}

func (pf *PiFace) release() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	pf.refs--
	if pf.refs > 0 || pf.closed {
		return nil
	}
	pf.closed = true
	if pf.closer == nil {
		return nil
	}
	return pf.closer.Close()
}

func (pf *PiFace) String() string {
	return fmt.Sprintf("piface:%s", pf.name)
}
