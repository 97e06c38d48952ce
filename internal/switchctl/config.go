// Package switchctl implements a command line client for the switchd API.
package switchctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	"github.com/larsks/switchd/internal/config"
)

const (
	defaultServerURL = "http://localhost:8080"
	serverURLEnv     = "SWITCHD_SERVER_URL"
)

// Config holds the switchctl configuration
type Config struct {
	ServerURL  string `mapstructure:"server-url"`
	ConfigFile string `mapstructure:"config-file"`
}

func getDefaultServerURL() string {
	if url := os.Getenv(serverURLEnv); url != "" {
		return url
	}
	return defaultServerURL
}

// DefaultConfigFile is the config file read when --config-file is not given.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, "switchd", "switchctl.toml")
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		ServerURL: getDefaultServerURL(),
	}
}

// AddFlags adds command-line flags for all configuration options
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config-file", "", "Config file to use (default "+DefaultConfigFile()+")")
	fs.StringVar(&c.ServerURL, "server-url", c.ServerURL, "switchd API URL (env "+serverURLEnv+")")
}

// LoadConfigWithFlagSet loads configuration with proper precedence. A missing
// default config file is not an error; a missing explicit one is.
func (c *Config) LoadConfigWithFlagSet(flags *pflag.FlagSet) error {
	if c.ConfigFile == "" {
		c.ConfigFile = DefaultConfigFile()
		if _, err := os.Stat(c.ConfigFile); errors.Is(err, fs.ErrNotExist) {
			c.ConfigFile = ""
		}
	} else if _, err := os.Stat(c.ConfigFile); err != nil {
		return fmt.Errorf("config file not found: %s", c.ConfigFile)
	}

	loader := config.NewConfigLoader()
	loader.SetConfigFile(c.ConfigFile)
	loader.SetFlagSet(flags)
	loader.SetStrictMode(true)
	loader.SetDefaults(map[string]any{
		"server-url": getDefaultServerURL(),
	})

	return loader.LoadConfig(c)
}
