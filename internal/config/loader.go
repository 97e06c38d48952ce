// Package config loads configuration structs from defaults, a config file
// and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configurable represents a type that can be configured via flags and config files.
type Configurable interface {
	// AddFlags should add command-line flags to the provided FlagSet
	AddFlags(fs *pflag.FlagSet)
}

// ConfigLoader provides common configuration loading functionality.
//
// Keys follow the mapstructure tags of the target struct. A flag maps to the
// key of the same name, so "--mqtt.server" sets the "server" field of the
// "mqtt" section.
type ConfigLoader struct {
	configFile string
	defaults   map[string]any
	flagSet    *pflag.FlagSet
	strictMode bool
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		defaults: make(map[string]any),
	}
}

// SetConfigFile sets the configuration file path.
func (cl *ConfigLoader) SetConfigFile(configFile string) {
	cl.configFile = configFile
}

// SetDefault sets a default value for a configuration key.
func (cl *ConfigLoader) SetDefault(key string, value any) {
	cl.defaults[key] = value
}

// SetDefaults sets multiple default values at once.
func (cl *ConfigLoader) SetDefaults(defaults map[string]any) {
	for key, value := range defaults {
		cl.defaults[key] = value
	}
}

// SetFlagSet selects the flag set consulted for explicit overrides. The
// default is pflag.CommandLine.
func (cl *ConfigLoader) SetFlagSet(fs *pflag.FlagSet) {
	cl.flagSet = fs
}

// SetStrictMode enables or disables strict mode for configuration validation.
// In strict mode, unknown configuration fields will cause an error.
func (cl *ConfigLoader) SetStrictMode(strict bool) {
	cl.strictMode = strict
}

// LoadConfig loads configuration with proper precedence: defaults < config file < explicit flags.
// The config parameter should be a pointer to the configuration struct to populate.
func (cl *ConfigLoader) LoadConfig(config any) error {
	v := viper.New()

	for key, value := range cl.defaults {
		v.SetDefault(key, value)
	}

	if cl.configFile != "" {
		if err := cl.readConfigFile(v); err != nil {
			return err
		}
	}

	fs := cl.flagSet
	if fs == nil {
		fs = pflag.CommandLine
	}

	// Only flags that were explicitly set override the file.
	fs.Visit(func(flag *pflag.Flag) {
		v.Set(flag.Name, flagValue(flag))
	})

	decoderConfig := mapstructure.DecoderConfig{
		Result:           config,
		ErrorUnused:      cl.strictMode,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	}

	decoder, err := mapstructure.NewDecoder(&decoderConfig)
	if err != nil {
		return fmt.Errorf("%w: failed to create decoder: %v", ErrConfigUnmarshal, err)
	}

	if err := decoder.Decode(expandEnv(v.AllSettings())); err != nil {
		errStr := err.Error()
		if cl.configFile != "" && strings.Contains(errStr, "has invalid keys:") {
			// Name the file instead of the empty root key.
			errStr = strings.Replace(errStr, "* ''", fmt.Sprintf("* '%s'", cl.configFile), 1)
		}
		return fmt.Errorf("%w: %s", ErrConfigUnmarshal, errStr)
	}

	if cl.configFile != "" {
		if err := setConfigFileField(config, cl.configFile); err != nil {
			return err
		}
	}

	return nil
}

// readConfigFile reads the config file into v. YAML files go through
// readYAMLFile so that !secret, !include and !env_var are resolved.
func (cl *ConfigLoader) readConfigFile(v *viper.Viper) error {
	if !isYAMLFile(cl.configFile) {
		v.SetConfigFile(cl.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w %s: %v", ErrConfigFileRead, cl.configFile, err)
		}
		return nil
	}

	settings, err := readYAMLFile(cl.configFile)
	if err != nil {
		if errors.Is(err, ErrConfigTag) {
			return err
		}
		return fmt.Errorf("%w %s: %v", ErrConfigFileRead, cl.configFile, err)
	}
	if err := v.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("%w %s: %v", ErrConfigFileRead, cl.configFile, err)
	}
	return nil
}

var envReference = regexp.MustCompile(`\$\{(\w+)\}|\$(\w+)`)

// expandEnv replaces $VAR and ${VAR} references in string values with the
// value of the environment variable. References to unset variables are left
// as written.
func expandEnv(value any) any {
	switch val := value.(type) {
	case string:
		return envReference.ReplaceAllStringFunc(val, func(ref string) string {
			match := envReference.FindStringSubmatch(ref)
			name := match[1]
			if name == "" {
				name = match[2]
			}
			if env, ok := os.LookupEnv(name); ok {
				return env
			}
			return ref
		})
	case map[string]any:
		for k, item := range val {
			val[k] = expandEnv(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = expandEnv(item)
		}
		return val
	default:
		return value
	}
}

// flagValue returns the typed value of a flag rather than its string form.
func flagValue(flag *pflag.Flag) any {
	str := flag.Value.String()

	switch flag.Value.Type() {
	case "uint", "uint8", "uint16", "uint32", "uint64":
		if val, err := strconv.ParseUint(str, 10, 64); err == nil {
			return val
		}
	case "int", "int8", "int16", "int32", "int64":
		if val, err := strconv.ParseInt(str, 10, 64); err == nil {
			return val
		}
	case "bool":
		if val, err := strconv.ParseBool(str); err == nil {
			return val
		}
	case "float32", "float64":
		if val, err := strconv.ParseFloat(str, 64); err == nil {
			return val
		}
	case "stringSlice", "stringArray":
		if sliceFlag, ok := flag.Value.(pflag.SliceValue); ok {
			return sliceFlag.GetSlice()
		}
	}

	return str
}

// setConfigFileField sets a ConfigFile field on the config struct, if it has one.
func setConfigFileField(config any, configFile string) error {
	v := reflect.ValueOf(config)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("%w: got %T", ErrConfigNotPointer, config)
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %s", ErrConfigNotStruct, v.Kind())
	}

	field := v.FieldByName("ConfigFile")
	if !field.IsValid() {
		return nil
	}

	if !field.CanSet() {
		return fmt.Errorf("%w: ConfigFile", ErrConfigFieldNotSet)
	}

	if field.Kind() != reflect.String {
		return fmt.Errorf("%w: ConfigFile is %s", ErrConfigFieldNotString, field.Kind())
	}

	field.SetString(configFile)
	return nil
}
