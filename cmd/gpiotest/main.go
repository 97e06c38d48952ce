package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/larsks/switchd/internal/gpio"
	_ "github.com/larsks/switchd/internal/logsetup"
	"github.com/larsks/switchd/internal/switchdrivers"
)

// gpiotest drives GPIO output lines directly, bypassing switchd. Each
// argument is pin=value, where pin uses the switchd pin syntax.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s pin=value [pin=value...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "example: %s GPIO17=on gpiochip0/22:active-low=off\n", os.Args[0])
		os.Exit(1)
	}

	for _, arg := range os.Args[1:] {
		if err := apply(arg); err != nil {
			log.Fatal().Err(err).Str("arg", arg).Msg("gpiotest failed")
		}
	}
}

func parseArg(arg string) (*gpio.PinSpec, bool, error) {
	spec, value, ok := strings.Cut(arg, "=")
	if !ok {
		return nil, false, fmt.Errorf("invalid argument %q: expected pin=value", arg)
	}

	pin, err := gpio.ParsePin(spec)
	if err != nil {
		return nil, false, err
	}

	switch strings.ToLower(value) {
	case "on", "1", "true":
		return pin, true, nil
	case "off", "0", "false":
		return pin, false, nil
	default:
		return nil, false, fmt.Errorf("invalid value for %s: %s", spec, value)
	}
}

func apply(arg string) error {
	pin, state, err := parseArg(arg)
	if err != nil {
		return err
	}

	output, err := switchdrivers.NewGPIOOutput(pin)
	if err != nil {
		return err
	}
	defer output.Close() //nolint:errcheck

	if err := output.SetState(state); err != nil {
		return err
	}

	log.Info().Stringer("pin", output).Bool("state", state).Msg("set output")
	return nil
}
