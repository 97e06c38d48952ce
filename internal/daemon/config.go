package daemon

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/larsks/switchd/internal/api"
	"github.com/larsks/switchd/internal/config"
	"github.com/larsks/switchd/internal/entity"
	"github.com/larsks/switchd/internal/preferences"
	"github.com/larsks/switchd/internal/switchdrivers"
	"github.com/larsks/switchd/internal/switchentity"
)

type (
	// MQTTConfig configures the MQTT bridge. The bridge is disabled when
	// Server is empty.
	MQTTConfig struct {
		Server   string `mapstructure:"server"`
		ClientID string `mapstructure:"client-id"`
		Prefix   string `mapstructure:"prefix"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	}

	// SwitchConfig describes one switch. Options are passed to the driver.
	SwitchConfig struct {
		Name        string                   `mapstructure:"name"`
		Driver      string                   `mapstructure:"driver"`
		Inverted    bool                     `mapstructure:"inverted"`
		RestoreMode switchentity.RestoreMode `mapstructure:"restore-mode"`
		DeviceClass string                   `mapstructure:"device-class"`
		Options     map[string]any           `mapstructure:"options"`
	}

	// Config is the switchd configuration.
	Config struct {
		ConfigFile    string             `mapstructure:"config-file"`
		ListenAddress string             `mapstructure:"listen-address"`
		ListenPort    int                `mapstructure:"listen-port"`
		LogLevel      string             `mapstructure:"log-level"`
		API           api.Config         `mapstructure:"api"`
		Preferences   preferences.Config `mapstructure:"preferences"`
		MQTT          MQTTConfig         `mapstructure:"mqtt"`
		Switches      []SwitchConfig     `mapstructure:"switches"`
	}
)

// NewConfig creates a new Config instance with default values.
func NewConfig() *Config {
	return &Config{
		ListenAddress: "",
		ListenPort:    8080,
		LogLevel:      "info",
		API: api.Config{
			RequestTimeout: api.DefaultRequestTimeout,
		},
		Preferences: preferences.Config{
			Backend: preferences.BackendFile,
		},
		MQTT: MQTTConfig{
			ClientID: "switchd",
			Prefix:   "switchd",
		},
	}
}

// AddFlags adds pflag flags for the configuration.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config-file", c.ConfigFile, "Config file to use")
	fs.StringVar(&c.ListenAddress, "listen-address", c.ListenAddress, "Listen address for http server")
	fs.IntVar(&c.ListenPort, "listen-port", c.ListenPort, "Listen port for http server")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringSliceVar(&c.API.AllowedOrigins, "api.allowed-origins", c.API.AllowedOrigins, "Origins allowed to make cross-origin requests")
	fs.DurationVar(&c.API.RequestTimeout, "api.request-timeout", c.API.RequestTimeout, "How long a request waits for a switch operation")
	fs.StringVar(&c.Preferences.Backend, "preferences.backend", c.Preferences.Backend, "Preference store (memory, file or sqlite)")
	fs.StringVar(&c.Preferences.Path, "preferences.path", c.Preferences.Path, "Preference store location")
	fs.StringVar(&c.MQTT.Server, "mqtt.server", c.MQTT.Server, "MQTT broker URL (mqtt://host:port)")
	fs.StringVar(&c.MQTT.ClientID, "mqtt.client-id", c.MQTT.ClientID, "MQTT client id")
	fs.StringVar(&c.MQTT.Prefix, "mqtt.prefix", c.MQTT.Prefix, "MQTT topic prefix")
	fs.StringVar(&c.MQTT.Username, "mqtt.username", c.MQTT.Username, "MQTT username")
	fs.StringVar(&c.MQTT.Password, "mqtt.password", c.MQTT.Password, "MQTT password")
}

func (c *Config) defaults() map[string]any {
	return map[string]any{
		"listen-address":      c.ListenAddress,
		"listen-port":         c.ListenPort,
		"log-level":           c.LogLevel,
		"api.request-timeout": c.API.RequestTimeout,
		"preferences.backend": c.Preferences.Backend,
		"mqtt.client-id":      c.MQTT.ClientID,
		"mqtt.prefix":         c.MQTT.Prefix,
	}
}

// LoadConfig loads the configuration using pflag.CommandLine.
func (c *Config) LoadConfig() error {
	return c.LoadConfigWithFlagSet(pflag.CommandLine)
}

// LoadConfigWithFlagSet loads the configuration file named by ConfigFile and
// applies explicitly set flags from fs on top of it.
func (c *Config) LoadConfigWithFlagSet(fs *pflag.FlagSet) error {
	loader := config.NewConfigLoader()
	loader.SetConfigFile(c.ConfigFile)
	loader.SetDefaults(c.defaults())
	loader.SetFlagSet(fs)
	loader.SetStrictMode(true)

	if err := loader.LoadConfig(c); err != nil {
		return err
	}

	return c.Validate()
}

// Validate checks the configuration, including every switch's driver
// options.
func (c *Config) Validate() error {
	return c.validate(switchdrivers.DefaultRegistry())
}

func (c *Config) validate(registry *switchdrivers.Registry) error {
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: listen-port %d out of range", ErrInvalidConfig, c.ListenPort)
	}

	switch c.Preferences.Backend {
	case preferences.BackendMemory, preferences.BackendFile, preferences.BackendSQLite, "":
	default:
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, preferences.ErrUnknownBackend, c.Preferences.Backend)
	}

	seen := make(map[string]string)
	for i, sc := range c.Switches {
		if sc.Name == "" {
			return fmt.Errorf("%w: switch %d has no name", ErrInvalidConfig, i)
		}

		objectID := entity.ObjectID(sc.Name)
		if other, exists := seen[objectID]; exists {
			return fmt.Errorf("%w: %q and %q both map to %s", ErrDuplicateSwitch, other, sc.Name, objectID)
		}
		seen[objectID] = sc.Name

		if err := registry.ValidateConfig(sc.Driver, sc.Options); err != nil {
			return fmt.Errorf("%w: switch %q: %w", ErrInvalidConfig, sc.Name, err)
		}
	}

	return nil
}
