// Package version reports build information set at link time.
package version

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// These are overridden with -ldflags "-X github.com/larsks/switchd/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a one-line version summary.
func String() string {
	return fmt.Sprintf("switchd %s (commit %s, built %s, %s)", Version, Commit, BuildDate, runtime.Version())
}

// WriteVersion writes the version summary to w.
func WriteVersion(w io.Writer) {
	fmt.Fprintln(w, String()) //nolint:errcheck
}

// ShowVersion prints the version summary on stdout.
func ShowVersion() {
	WriteVersion(os.Stdout)
}
