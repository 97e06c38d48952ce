// Package logsetup configures the global zerolog logger. Importing it
// switches log output to a human readable console writer on stderr.
package logsetup

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	Configure(os.Stderr)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Configure sends console formatted log output to w.
func Configure(w io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
}

// SetLevel sets the global log level from its name ("debug", "info", ...).
func SetLevel(name string) error {
	if name == "" {
		return nil
	}

	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}

	zerolog.SetGlobalLevel(level)
	return nil
}
