package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults is the optional on-disk defaults file. Values here sit
// between built-in defaults and flag/env overrides.
type Defaults struct {
	Agent       string `yaml:"agent"`
	Zone        string `yaml:"zone"`
	MachineType string `yaml:"machineType"`
	ClusterName string `yaml:"clusterName"`
	SSHKey      string `yaml:"sshKey"`
	Permissions string `yaml:"permissions"`
}

// BaseDir is where cloud-agent keeps its local files.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cloud-agent")
}

// DefaultsPath is the location of the defaults file.
func DefaultsPath() string {
	return filepath.Join(BaseDir(), "config.yaml")
}

// LoadDefaults reads the defaults file at path. A missing file is not
// an error; it yields zero Defaults.
func LoadDefaults(path string) (Defaults, error) {
	var d Defaults

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, fmt.Errorf("reading defaults: %w", err)
	}

	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parsing defaults: %w", err)
	}
	return d, nil
}

// SaveDefaults writes the defaults file, creating its directory.
func SaveDefaults(path string, d Defaults) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Merge overlays the defaults file onto the overrides for every field
// the user left empty.
func (d Defaults) Merge(ov Overrides) Overrides {
	if ov.Agent == "" {
		ov.Agent = d.Agent
	}
	if ov.Zone == "" {
		ov.Zone = d.Zone
	}
	if ov.MachineType == "" {
		ov.MachineType = d.MachineType
	}
	if ov.ClusterName == "" {
		ov.ClusterName = d.ClusterName
	}
	if ov.SSHKey == "" {
		ov.SSHKey = d.SSHKey
	}
	if ov.Permissions == "" {
		ov.Permissions = d.Permissions
	}
	return ov
}
