package daemon

import (
	"context"
	"fmt"

	"github.com/larsks/switchd/internal/cli"
	"github.com/larsks/switchd/internal/logsetup"
)

// Handler implements cli.CommandHandler for switchd
type Handler struct{}

// NewHandler creates a new switchd command handler
func NewHandler() *Handler {
	return &Handler{}
}

// Start runs the daemon until ctx is cancelled.
func (h *Handler) Start(ctx context.Context, config cli.Configurable) error {
	cfg, ok := config.(*Config)
	if !ok {
		return fmt.Errorf("%w: %T", ErrInvalidConfigType, config)
	}

	if err := logsetup.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	d, err := New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	return d.Run(ctx)
}
