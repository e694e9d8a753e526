// Package config loads mdmake's own settings (not the build configuration
// document) from a config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all mdmake settings.
type Config struct {
	// File is the default configuration document name.
	File string `mapstructure:"file"`

	// Color is the color mode: auto, always, or never.
	Color string `mapstructure:"color"`

	// ScriptShell is the interpreter command line for script mode.
	ScriptShell string `mapstructure:"script_shell"`

	// Verbose enables up-to-date notes and script tracing by default.
	Verbose bool `mapstructure:"verbose"`

	// Quiet suppresses target and command narration by default.
	Quiet bool `mapstructure:"quiet"`

	// configFile is the path of the file that was loaded, if any.
	configFile string
}

// ConfigFile returns the path to the configuration file that was loaded, or
// an empty string if no file was loaded.
func (c *Config) ConfigFile() string {
	return c.configFile
}

//nolint:gochecknoglobals // singleton pattern requires package-level state
var (
	globalConfig       *Config
	globalConfigLoaded bool
	globalConfigMu     sync.RWMutex
)

// Global returns the global configuration singleton, loading it on first
// access and falling back to defaults when loading fails.
func Global() *Config {
	globalConfigMu.RLock()
	if globalConfigLoaded {
		cfg := globalConfig
		globalConfigMu.RUnlock()
		return cfg
	}
	globalConfigMu.RUnlock()

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfigLoaded {
		return globalConfig
	}

	cfg, err := Load(nil)
	if err != nil {
		cfg = Defaults()
	}
	globalConfig = cfg
	globalConfigLoaded = true
	return globalConfig
}

// SetGlobal sets the global configuration. This is primarily useful for
// testing.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	globalConfigLoaded = true
}

// ResetGlobal resets the global configuration to be reloaded on next access.
// This is primarily useful for testing.
func ResetGlobal() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigLoaded = false
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ConfigDir overrides the user config directory to search.
	ConfigDir string
}

// Load reads settings from the user config file (if present) and MDMAKE_*
// environment variables, layered over defaults.
func Load(opts *LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetDefault("file", DefaultFile)
	v.SetDefault("color", DefaultColor)
	v.SetDefault("script_shell", DefaultScriptShell)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)

	v.SetEnvPrefix("MDMAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	dir := ""
	if opts != nil {
		dir = opts.ConfigDir
	}
	if dir == "" {
		if ucd, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(ucd, "mdmake")
		}
	}
	if dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.configFile = v.ConfigFileUsed()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Color {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("invalid color mode %q (want auto, always, or never)", c.Color)
	}
}
