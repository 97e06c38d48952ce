// Package gpio parses GPIO output pin specifications.
package gpio

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultChip is the GPIO character device used when a spec names none.
const DefaultChip = "gpiochip0"

// Polarity represents the electrical polarity of a GPIO pin
type Polarity int

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

// PinSpec represents a parsed GPIO pin specification
type PinSpec struct {
	// Chip is the GPIO chip name (e.g., "gpiochip0")
	Chip string

	// LineNum is the GPIO line number (e.g., 18 for GPIO18)
	LineNum int

	// Polarity indicates if the pin is active-high or active-low
	Polarity Polarity
}

// ParsePin parses a GPIO pin specification string
// Format: "[chip/]pin[:active-high|active-low]"
// Examples: "GPIO18", "GPIO18:active-low", "gpiochip1/18:active-high"
func ParsePin(pinSpec string) (*PinSpec, error) {
	spec := strings.TrimSpace(pinSpec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPinSpec)
	}

	parts := strings.Split(spec, ":")

	chip := DefaultChip
	pin := parts[0]
	if idx := strings.LastIndex(pin, "/"); idx >= 0 {
		chip = pin[:idx]
		pin = pin[idx+1:]
		if chip == "" {
			return nil, fmt.Errorf("%w: %s: empty chip name", ErrInvalidPinSpec, pinSpec)
		}
	}

	lineNum, err := ParsePinNumber(pin)
	if err != nil {
		return nil, err
	}

	polarity := ActiveHigh
	for _, opt := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "active-high":
			polarity = ActiveHigh
		case "active-low":
			polarity = ActiveLow
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownPinOption, opt)
		}
	}

	return &PinSpec{
		Chip:     chip,
		LineNum:  lineNum,
		Polarity: polarity,
	}, nil
}

// ParsePinNumber parses a GPIO pin name (e.g., "GPIO16") and returns the line number
// Supports both "GPIO<number>" and "<number>" formats
func ParsePinNumber(pinName string) (int, error) {
	name := strings.ToUpper(strings.TrimSpace(pinName))
	name = strings.TrimPrefix(name, "GPIO")

	lineNum, err := strconv.Atoi(name)
	if err != nil || lineNum < 0 {
		return 0, fmt.Errorf("%w: %s (expected GPIO<number> or <number>)", ErrInvalidPinNumber, pinName)
	}
	return lineNum, nil
}

// Level returns the electrical level that drives the pin to the given
// logical value.
func (ps *PinSpec) Level(active bool) int {
	if active == (ps.Polarity == ActiveHigh) {
		return 1
	}
	return 0
}

// String returns a string representation of the polarity
func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	case ActiveLow:
		return "active-low"
	default:
		return "unknown"
	}
}

// String returns a string representation of the pin specification
func (ps *PinSpec) String() string {
	return fmt.Sprintf("%s/GPIO%d:%s", ps.Chip, ps.LineNum, ps.Polarity)
}
