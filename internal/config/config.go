// Package config handles the optional launcher.json configuration file.
//
// The file is parsed as JSONC (JSON with Comments) via github.com/tidwall/jsonc
// so users can annotate their configuration, with the standard encoding/json
// library doing the actual decoding after comment stripping.
//
// Key responsibilities:
//   - Locate launcher.json in the base directory (two candidate names)
//   - Parse the file with JSONC support
//   - Apply defaults for every omitted field
//   - Validate values that have a constrained domain (run mode)
//
// A missing configuration file is not an error: the launcher works out of
// the box with defaults matching the original shell script's behavior.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/skellner/flight-launcher/internal/model"
)

// Defaults for every configurable value. These reproduce the original
// launcher's hardcoded behavior, so a directory without launcher.json
// behaves exactly like the shell script did.
const (
	// DefaultVenvDir is the virtual environment directory name,
	// relative to the base directory.
	DefaultVenvDir = ".venv"

	// DefaultManifest is the dependency manifest file name,
	// relative to the base directory.
	DefaultManifest = "requirements.txt"

	// DefaultTarget is the target program file name,
	// relative to the base directory.
	DefaultTarget = "flight_tracker.py"

	// DefaultContainerImage is the image used in container run mode.
	DefaultContainerImage = "python:3.12-slim"
)

// DefaultInterpreters lists the interpreter names probed on PATH, in
// priority order. "python3" is preferred; "python" covers systems where
// only an unversioned binary exists (and may still resolve to Python 2,
// which the version probe surfaces in status output).
var DefaultInterpreters = []string{"python3", "python"}

// Config holds the launcher configuration. Only the fields relevant to
// the launcher are defined; unknown fields in launcher.json are silently
// ignored during parsing.
//
// All path fields are interpreted relative to the base directory unless
// absolute.
type Config struct {
	// VenvDir is the virtual environment directory.
	VenvDir string `json:"venvDir,omitempty"`

	// Manifest is the dependency manifest file consumed by pip.
	Manifest string `json:"manifest,omitempty"`

	// Target is the program the launcher hands off to.
	Target string `json:"target,omitempty"`

	// Interpreters lists interpreter names to probe on PATH, in priority
	// order. Defaults to ["python3", "python"].
	Interpreters []string `json:"interpreters,omitempty"`

	// PipArgs are extra arguments appended to the pip install invocation,
	// after the built-in "-q -r <manifest>". Useful for index mirrors or
	// --no-cache-dir.
	PipArgs []string `json:"pipArgs,omitempty"`

	// SkipUnchanged skips the dependency install when the manifest's
	// checksum matches the one recorded after the last successful install.
	// Off by default: the original launcher reinstalls on every run, and
	// pip itself is cheap when everything is already satisfied.
	SkipUnchanged bool `json:"skipUnchanged,omitempty"`

	// Mode selects how the target runs: "venv" (default) or "container".
	Mode model.RunMode `json:"mode,omitempty"`

	// ContainerImage is the Docker image used in container mode.
	ContainerImage string `json:"containerImage,omitempty"`
}

// Default returns a Config with every field set to its default value.
// This is what the launcher uses when no launcher.json exists.
func Default() *Config {
	return &Config{
		VenvDir:        DefaultVenvDir,
		Manifest:       DefaultManifest,
		Target:         DefaultTarget,
		Interpreters:   append([]string(nil), DefaultInterpreters...),
		Mode:           model.ModeVenv,
		ContainerImage: DefaultContainerImage,
	}
}

// applyDefaults fills in defaults for every zero-valued field.
// Called after parsing so a partial launcher.json only overrides
// what it actually specifies.
func (c *Config) applyDefaults() {
	if c.VenvDir == "" {
		c.VenvDir = DefaultVenvDir
	}
	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}
	if c.Target == "" {
		c.Target = DefaultTarget
	}
	if len(c.Interpreters) == 0 {
		c.Interpreters = append([]string(nil), DefaultInterpreters...)
	}
	if c.Mode == "" {
		c.Mode = model.ModeVenv
	}
	if c.ContainerImage == "" {
		c.ContainerImage = DefaultContainerImage
	}
}

// Validate checks the constrained fields of the configuration.
// Returns a CLIError with ExitConfigError on the first violation.
func (c *Config) Validate() error {
	if !c.Mode.IsValid() {
		return model.NewCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid run mode %q in launcher.json (valid: venv, container)", c.Mode),
		)
	}
	return nil
}

// Load reads a launcher.json file, strips JSONC comments, parses it, and
// applies defaults for omitted fields.
//
// Returns a CLIError with ExitConfigError if the file cannot be read or
// does not parse — a present-but-broken configuration should abort the
// launch rather than silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read launcher config: %s", path),
			err,
		)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing, the same treatment devcontainer.json files get.
	cleanJSON := jsonc.ToJSON(data)

	var cfg Config
	if err := json.Unmarshal(cleanJSON, &cfg); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to parse launcher config: %s", path),
			err,
		)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find searches for a launcher configuration file in the base directory.
//
// The search order is:
//  1. <baseDir>/launcher.json (preferred)
//  2. <baseDir>/.launcher.json (hidden alternative)
//
// Returns the path of the first file found, or the empty string when
// neither exists. A missing config file is not an error.
func Find(baseDir string) string {
	candidates := []string{
		filepath.Join(baseDir, "launcher.json"),
		filepath.Join(baseDir, ".launcher.json"),
	}

	for _, path := range candidates {
		// os.Stat checks existence without reading the file contents.
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFromDir locates and loads the launcher configuration for a base
// directory. When no configuration file exists, the defaults are returned.
func LoadFromDir(baseDir string) (*Config, error) {
	path := Find(baseDir)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// ResolvePath resolves a configured path against the base directory.
// Absolute paths are returned unchanged; relative ones are anchored
// at baseDir.
func ResolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
