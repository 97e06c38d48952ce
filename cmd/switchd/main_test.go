package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/switchd/internal/cli"
	"github.com/larsks/switchd/internal/daemon"
)

func TestParseArgs(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	config := filepath.Join(t.TempDir(), "switchd.yaml")
	require.NoError(t, os.WriteFile(config, []byte("preferences:\n  backend: memory\n"), 0o600))

	tests := []struct {
		name        string
		args        []string
		wantCommand string
		wantErr     bool
	}{
		{
			name:        "no arguments starts server",
			args:        []string{},
			wantCommand: cli.CommandStart,
		},
		{
			name:        "version flag",
			args:        []string{"--version"},
			wantCommand: cli.CommandVersion,
		},
		{
			name:        "listen-port flag",
			args:        []string{"--listen-port", "9090"},
			wantCommand: cli.CommandStart,
		},
		{
			name:        "config file",
			args:        []string{"--config-file", config},
			wantCommand: cli.CommandStart,
		},
		{
			name:    "config file flag with non-existent file",
			args:    []string{"--config-file", missing},
			wantErr: true,
		},
		{
			name:    "invalid backend",
			args:    []string{"--preferences.backend", "etcd"},
			wantErr: true,
		},
		{
			name:    "invalid flag",
			args:    []string{"--invalid-flag"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.Usage = func() {}
			fs.SetOutput(&bytes.Buffer{})

			base := cli.NewBaseCLI(&bytes.Buffer{}, &bytes.Buffer{})
			got, err := base.ParseArgsWithFlagSet(tt.args, func() cli.Configurable { return daemon.NewConfig() }, fs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCommand, got.Command)
			assert.IsType(t, &daemon.Config{}, got.Config)
		})
	}
}
