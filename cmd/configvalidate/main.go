package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/larsks/switchd/internal/daemon"
	"github.com/larsks/switchd/internal/version"
)

func main() {
	var (
		versionFlag = pflag.Bool("version", false, "Show version and exit")
		configFile  = pflag.String("config-file", "", "Configuration file to validate")
		helpFlag    = pflag.BoolP("help", "h", false, "Show help")
	)

	pflag.Parse()

	if *versionFlag {
		version.ShowVersion()
		os.Exit(0)
	}

	if *helpFlag {
		usage()
		os.Exit(0)
	}

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --config-file flag is required\n\n")
		usage()
		os.Exit(1)
	}

	if err := validate(*configFile, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s --config-file FILE\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "A tool for validating switchd configuration files.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	pflag.PrintDefaults()
}

// validate loads configFile the way switchd does, including driver option
// checks, and lists the switches it defines.
func validate(configFile string, w io.Writer) error {
	if _, err := os.Stat(configFile); err != nil {
		return fmt.Errorf("configuration file %s does not exist", configFile)
	}

	cfg := daemon.NewConfig()
	cfg.ConfigFile = configFile

	// Flags are registered but never parsed so that only the file is checked.
	fs := pflag.NewFlagSet("switchd", pflag.ContinueOnError)
	cfg.AddFlags(fs)

	if err := cfg.LoadConfigWithFlagSet(fs); err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Configuration file %s is valid\n", configFile)
	for _, sc := range cfg.Switches {
		fmt.Fprintf(w, "  %s (driver %s, restore mode %s)\n", sc.Name, sc.Driver, sc.RestoreMode)
	}
	return nil
}
