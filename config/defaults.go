package config

const (
	// DefaultFile is the configuration document mdmake looks for.
	DefaultFile = "Makefile.md"

	// DefaultColor is the default color mode.
	DefaultColor = "auto"

	// DefaultScriptShell is the script-mode interpreter command line.
	DefaultScriptShell = "bash -eo pipefail"
)

// Defaults returns a Config with all defaults applied.
func Defaults() *Config {
	return &Config{
		File:        DefaultFile,
		Color:       DefaultColor,
		ScriptShell: DefaultScriptShell,
	}
}
