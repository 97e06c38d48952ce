package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	_ "github.com/larsks/switchd/internal/logsetup"
	"github.com/larsks/switchd/internal/switchctl"
	"github.com/larsks/switchd/internal/version"
)

func main() {
	versionFlag := pflag.Bool("version", false, "Show version and exit")

	cfg := switchctl.NewConfig()
	cfg.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if *versionFlag {
		version.ShowVersion()
		os.Exit(0)
	}

	if err := cfg.LoadConfigWithFlagSet(pflag.CommandLine); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := switchctl.NewHandler(cfg).Execute(pflag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
