package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsks/switchd/internal/switchentity"
)

//go:embed testdata/test-config.toml
var testConfigTOML string

//go:embed testdata/unknown-key-config.toml
var unknownKeyConfigTOML string

// TestConfig is a sample config struct for testing
type TestConfig struct {
	ConfigFile    string `mapstructure:"config-file"`
	ListenAddress string `mapstructure:"listen-address"`
	ListenPort    int    `mapstructure:"listen-port"`
	Debug         bool   `mapstructure:"debug"`
}

func (c *TestConfig) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config-file", c.ConfigFile, "Config file to use")
	fs.StringVar(&c.ListenAddress, "listen-address", c.ListenAddress, "Listen address")
	fs.IntVar(&c.ListenPort, "listen-port", c.ListenPort, "Listen port")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug mode")
}

var testDefaults = map[string]any{
	"listen-address": "127.0.0.1",
	"listen-port":    8080,
	"debug":          false,
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestLoader(t *testing.T, configFile string, args ...string) (*ConfigLoader, *TestConfig) {
	t.Helper()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config := &TestConfig{
		ListenAddress: "127.0.0.1",
		ListenPort:    8080,
	}
	config.AddFlags(fs)
	require.NoError(t, fs.Parse(args))

	loader := NewConfigLoader()
	loader.SetFlagSet(fs)
	loader.SetConfigFile(configFile)
	loader.SetDefaults(testDefaults)
	return loader, config
}

func TestConfigLoader_LoadConfig(t *testing.T) {
	path := writeConfig(t, "config.toml", testConfigTOML)
	loader, config := newTestLoader(t, path)

	require.NoError(t, loader.LoadConfig(config))

	assert.Equal(t, "192.168.1.100", config.ListenAddress)
	assert.Equal(t, 9090, config.ListenPort)
	assert.True(t, config.Debug)
	assert.Equal(t, path, config.ConfigFile, "ConfigFile should be preserved")
}

func TestConfigLoader_Defaults(t *testing.T) {
	loader, config := newTestLoader(t, "")

	require.NoError(t, loader.LoadConfig(config))

	assert.Equal(t, "127.0.0.1", config.ListenAddress)
	assert.Equal(t, 8080, config.ListenPort)
	assert.False(t, config.Debug)
	assert.Empty(t, config.ConfigFile)
}

func TestConfigLoader_FlagPrecedence(t *testing.T) {
	path := writeConfig(t, "config.toml", testConfigTOML)
	loader, config := newTestLoader(t, path, "--listen-port", "7777")

	require.NoError(t, loader.LoadConfig(config))

	// explicit flag > config file > defaults
	assert.Equal(t, "192.168.1.100", config.ListenAddress)
	assert.Equal(t, 7777, config.ListenPort)
	assert.True(t, config.Debug)
}

func TestConfigLoader_MissingFile(t *testing.T) {
	loader, config := newTestLoader(t, filepath.Join(t.TempDir(), "missing.toml"))

	err := loader.LoadConfig(config)
	assert.ErrorIs(t, err, ErrConfigFileRead)
}

func TestConfigLoader_StrictMode(t *testing.T) {
	path := writeConfig(t, "config.toml", unknownKeyConfigTOML)

	t.Run("lenient", func(t *testing.T) {
		loader, config := newTestLoader(t, path)
		require.NoError(t, loader.LoadConfig(config))
		assert.Equal(t, "192.168.1.100", config.ListenAddress)
	})

	t.Run("strict", func(t *testing.T) {
		loader, config := newTestLoader(t, path)
		loader.SetStrictMode(true)

		err := loader.LoadConfig(config)
		require.ErrorIs(t, err, ErrConfigUnmarshal)
		assert.Contains(t, err.Error(), "listen-prot")
		assert.Contains(t, err.Error(), path)
	})
}

func TestConfigLoader_NestedFlagNames(t *testing.T) {
	type MQTTTestConfig struct {
		Server string `mapstructure:"server"`
		QoS    uint   `mapstructure:"qos"`
	}

	type NestedConfig struct {
		MQTT MQTTTestConfig `mapstructure:"mqtt"`
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config := &NestedConfig{}
	fs.StringVar(&config.MQTT.Server, "mqtt.server", "", "MQTT server")
	fs.UintVar(&config.MQTT.QoS, "mqtt.qos", 0, "MQTT QoS")
	require.NoError(t, fs.Parse([]string{"--mqtt.server", "mqtt://broker:1883", "--mqtt.qos", "1"}))

	loader := NewConfigLoader()
	loader.SetFlagSet(fs)
	require.NoError(t, loader.LoadConfig(config))

	assert.Equal(t, "mqtt://broker:1883", config.MQTT.Server)
	assert.Equal(t, uint(1), config.MQTT.QoS)
}

func TestConfigLoader_SwitchList(t *testing.T) {
	type SwitchTestConfig struct {
		Name        string                   `mapstructure:"name"`
		Driver      string                   `mapstructure:"driver"`
		Inverted    bool                     `mapstructure:"inverted"`
		RestoreMode switchentity.RestoreMode `mapstructure:"restore-mode"`
		Options     map[string]any           `mapstructure:"options"`
	}

	type DaemonTestConfig struct {
		ListenPort int                `mapstructure:"listen-port"`
		Switches   []SwitchTestConfig `mapstructure:"switches"`
	}

	config := &DaemonTestConfig{}
	loader := NewConfigLoader()
	loader.SetFlagSet(pflag.NewFlagSet("test", pflag.ContinueOnError))
	loader.SetConfigFile("testdata/switches-config.yaml")
	loader.SetStrictMode(true)

	require.NoError(t, loader.LoadConfig(config))

	assert.Equal(t, 8081, config.ListenPort)
	require.Len(t, config.Switches, 2)

	pump := config.Switches[0]
	assert.Equal(t, "Garden Pump", pump.Name)
	assert.Equal(t, "dummy", pump.Driver)
	assert.Equal(t, switchentity.AlwaysOn, pump.RestoreMode)
	assert.Equal(t, true, pump.Options["optimistic"])

	porch := config.Switches[1]
	assert.True(t, porch.Inverted)
	assert.Equal(t, switchentity.RestoreDefaultOff, porch.RestoreMode)
	assert.Equal(t, "17:active-low", porch.Options["pin"])
}

func TestConfigLoader_InvalidRestoreMode(t *testing.T) {
	type ModeConfig struct {
		RestoreMode switchentity.RestoreMode `mapstructure:"restore-mode"`
	}

	path := writeConfig(t, "config.toml", `restore-mode = "SOMETIMES"`)
	loader := NewConfigLoader()
	loader.SetFlagSet(pflag.NewFlagSet("test", pflag.ContinueOnError))
	loader.SetConfigFile(path)

	err := loader.LoadConfig(&ModeConfig{})
	require.ErrorIs(t, err, ErrConfigUnmarshal)
	assert.Contains(t, err.Error(), "SOMETIMES")
}

func TestConfigLoader_EnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_USERNAME", "testuser")
	t.Setenv("TEST_PASSWORD", "secret123")

	type MQTTTestConfig struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Server   string `mapstructure:"server"`
	}

	type EnvTestConfig struct {
		ListenAddress string         `mapstructure:"listen-address"`
		MQTT          MQTTTestConfig `mapstructure:"mqtt"`
	}

	path := writeConfig(t, "config.toml", `
listen-address = "$TEST_USERNAME"

[mqtt]
username = "${TEST_USERNAME}"
password = "${TEST_PASSWORD}"
server = "mqtt://broker.example.com"
`)

	config := &EnvTestConfig{}
	loader := NewConfigLoader()
	loader.SetFlagSet(pflag.NewFlagSet("test", pflag.ContinueOnError))
	loader.SetConfigFile(path)

	require.NoError(t, loader.LoadConfig(config))

	assert.Equal(t, "testuser", config.ListenAddress)
	assert.Equal(t, "testuser", config.MQTT.Username)
	assert.Equal(t, "secret123", config.MQTT.Password)
	assert.Equal(t, "mqtt://broker.example.com", config.MQTT.Server)
}

func TestConfigLoader_EnvironmentVariables_NotSet(t *testing.T) {
	require.NoError(t, os.Unsetenv("NONEXISTENT_VAR"))

	path := writeConfig(t, "config.toml", `listen-address = "${NONEXISTENT_VAR}"`)
	loader, config := newTestLoader(t, path)

	require.NoError(t, loader.LoadConfig(config))

	assert.Equal(t, "${NONEXISTENT_VAR}", config.ListenAddress)
}

func TestSetConfigFileField(t *testing.T) {
	type noField struct{ Other string }
	type wrongType struct{ ConfigFile int }

	assert.ErrorIs(t, setConfigFileField(TestConfig{}, "x"), ErrConfigNotPointer)

	s := "string"
	assert.ErrorIs(t, setConfigFileField(&s, "x"), ErrConfigNotStruct)
	assert.NoError(t, setConfigFileField(&noField{}, "x"))
	assert.ErrorIs(t, setConfigFileField(&wrongType{}, "x"), ErrConfigFieldNotString)
}
