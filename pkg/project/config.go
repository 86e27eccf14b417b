// Package project loads per-project compiler settings from bcc.toml.
package project

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is looked up in the working directory by the driver.
const ConfigFileName = "bcc.toml"

// Config holds the settings a project can pin in bcc.toml. Command-line
// flags and BCC_* environment variables override these values.
type Config struct {
	// Output is the base name for the generated assembly and executable.
	// Empty means: derive it from the input file name.
	Output string `toml:"output"`

	// Arch selects the target architecture. Only "arm" is supported.
	Arch string `toml:"arch"`

	// SaveAssembly keeps the intermediate .s file after linking.
	SaveAssembly bool `toml:"save_assembly"`

	// LinkScript is the assembler/linker script the driver invokes.
	LinkScript string `toml:"link_script"`
}

// Default returns the configuration used when no bcc.toml is present.
func Default() *Config {
	return &Config{
		Arch:       "arm",
		LinkScript: "scripts/generate_executable.sh",
	}
}

// Load reads and parses a bcc.toml file. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadIfPresent loads path when it exists and falls back to Default when it
// does not. Any other error is reported.
func LoadIfPresent(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
