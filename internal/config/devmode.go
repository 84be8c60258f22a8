package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DevMode carries the developer toggles read from dev.toml.
type DevMode struct {
	DeveloperMode bool `toml:"developer_mode"`
	Verbose       bool `toml:"verbose"`
}

// LoadDevMode reads the optional developer toggle file. A missing, unreadable
// or malformed file yields both toggles off.
func LoadDevMode(path string) DevMode {
	data, err := os.ReadFile(path)
	if err != nil {
		return DevMode{}
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return DevMode{}
	}
	return DevMode{
		DeveloperMode: boolValue(raw["developer_mode"]),
		Verbose:       boolValue(raw["verbose"]),
	}
}

// boolValue accepts only real booleans; anything else counts as off.
func boolValue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
