// Package cli implements the argument handling shared by switchd commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/larsks/switchd/internal/version"
)

// Configurable represents a type that can be configured via flags and config files
type Configurable interface {
	AddFlags(fs *pflag.FlagSet)
	LoadConfigWithFlagSet(fs *pflag.FlagSet) error
}

// CommandHandler represents a command that can be executed. Start should
// return once ctx is cancelled.
type CommandHandler interface {
	Start(ctx context.Context, config Configurable) error
}

// Command names returned by ParseArgs
const (
	CommandStart   = "start"
	CommandVersion = "version"
)

// BaseCLI provides common CLI functionality
type BaseCLI struct {
	stdout io.Writer
	stderr io.Writer
}

// NewBaseCLI creates a new BaseCLI instance
func NewBaseCLI(stdout, stderr io.Writer) *BaseCLI {
	return &BaseCLI{
		stdout: stdout,
		stderr: stderr,
	}
}

// CommandArgs represents parsed command line arguments
type CommandArgs struct {
	Command string
	Config  Configurable
}

// ParseArgs parses args against pflag.CommandLine.
func (c *BaseCLI) ParseArgs(args []string, configFactory func() Configurable) (*CommandArgs, error) {
	return c.ParseArgsWithFlagSet(args, configFactory, pflag.CommandLine)
}

// ParseArgsWithFlagSet handles --version and otherwise loads the configuration
// produced by configFactory.
func (c *BaseCLI) ParseArgsWithFlagSet(args []string, configFactory func() Configurable, fs *pflag.FlagSet) (*CommandArgs, error) {
	versionFlag := fs.Bool("version", false, "Show version and exit")

	cfg := configFactory()
	cfg.AddFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *versionFlag {
		return &CommandArgs{Command: CommandVersion, Config: cfg}, nil
	}

	if err := cfg.LoadConfigWithFlagSet(fs); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &CommandArgs{Command: CommandStart, Config: cfg}, nil
}

// Execute runs the specified command
func (c *BaseCLI) Execute(ctx context.Context, cmdArgs *CommandArgs, handler CommandHandler) error {
	switch cmdArgs.Command {
	case CommandVersion:
		version.WriteVersion(c.stdout)
		return nil
	case CommandStart:
		return handler.Start(ctx, cmdArgs.Config)
	default:
		return fmt.Errorf("unknown command: %s", cmdArgs.Command)
	}
}

// StandardMain parses os.Args and runs handler until SIGINT or SIGTERM.
func StandardMain(configFactory func() Configurable, handler CommandHandler) {
	cli := NewBaseCLI(os.Stdout, os.Stderr)

	cmdArgs, err := cli.ParseArgs(os.Args[1:], configFactory)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cmdArgs, handler); err != nil {
		log.Fatal().Err(err).Msg("command failed") //nolint:gocritic
	}
}
