// state.go implements the provision-state file.
//
// After a successful install, the launcher records what it did — the
// manifest checksum, the interpreter version, and timestamps — in a small
// YAML file next to the virtual environment. The file is purely advisory:
// losing it only degrades the status report to "stale" and forces one
// redundant (harmless) pip run. It is never a creation gate; the venv
// directory's existence remains the sole idempotency marker, matching the
// original launcher.
package venv

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StateFileName is the provision-state file name, created in the base
// directory alongside the virtual environment.
const StateFileName = ".launcher-state.yml"

// State records the outcome of the last successful provisioning run.
type State struct {
	// ManifestChecksum is the hex SHA-256 of the dependency manifest at
	// the time of the last successful install.
	ManifestChecksum string `yaml:"manifestChecksum,omitempty"`

	// PythonVersion is the version reported by the system interpreter
	// that created the environment.
	PythonVersion string `yaml:"pythonVersion,omitempty"`

	// CreatedAt is when the virtual environment was created.
	CreatedAt time.Time `yaml:"createdAt,omitempty"`

	// InstalledAt is when dependencies were last installed successfully.
	InstalledAt time.Time `yaml:"installedAt,omitempty"`
}

// StatePath returns the provision-state file path for a base directory.
func StatePath(baseDir string) string {
	return filepath.Join(baseDir, StateFileName)
}

// LoadState reads the provision-state file for a base directory.
// A missing file yields an empty State, not an error: first runs and
// cleaned directories are normal conditions. A present-but-unparseable
// file is also treated as empty — the file is advisory, and the worst
// consequence is one redundant install.
func LoadState(baseDir string) *State {
	data, err := os.ReadFile(StatePath(baseDir))
	if err != nil {
		return &State{}
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return &State{}
	}
	return &st
}

// Save writes the provision-state file for a base directory.
func (s *State) Save(baseDir string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal provision state: %w", err)
	}
	if err := os.WriteFile(StatePath(baseDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write provision state: %w", err)
	}
	return nil
}

// RemoveState deletes the provision-state file for a base directory.
// Removing a file that does not exist is not an error.
func RemoveState(baseDir string) error {
	err := os.Remove(StatePath(baseDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove provision state: %w", err)
	}
	return nil
}
