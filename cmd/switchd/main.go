package main

import (
	"github.com/larsks/switchd/internal/cli"
	"github.com/larsks/switchd/internal/daemon"
	_ "github.com/larsks/switchd/internal/logsetup"
)

func main() {
	cli.StandardMain(
		func() cli.Configurable { return daemon.NewConfig() },
		daemon.NewHandler(),
	)
}
