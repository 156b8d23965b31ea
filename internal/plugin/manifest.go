package plugin

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the per-plugin declaration file name.
const ManifestFile = "plugin.yaml"

// ConfigFile is the plugin-owned configuration file name. Its contents
// are opaque to the host; only its path is handed to initialize.
const ConfigFile = "config.yaml"

// Manifest declares a plugin: identity plus the executable to spawn.
type Manifest struct {
	Plugin struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
		Icon        string `yaml:"icon"`
	} `yaml:"plugin"`
	Executable struct {
		Default string `yaml:"default"`
		Windows string `yaml:"windows"`
	} `yaml:"executable"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Plugin.Name == "" {
		return nil, fmt.Errorf("manifest missing plugin.name")
	}
	if m.Plugin.Version == "" {
		return nil, fmt.Errorf("manifest missing plugin.version")
	}
	if m.Executable.Default == "" {
		return nil, fmt.Errorf("manifest missing executable.default")
	}
	return &m, nil
}

// ExecutableName resolves the platform-specific executable file name:
// the windows override on Windows, else the default.
func (m *Manifest) ExecutableName() string {
	if runtime.GOOS == "windows" && m.Executable.Windows != "" {
		return m.Executable.Windows
	}
	return m.Executable.Default
}
