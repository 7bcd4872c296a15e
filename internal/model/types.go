// Package model defines the domain types for the flight-launcher CLI.
//
// All entities in this package are transient representations computed
// from the filesystem at runtime. The only persistent state the launcher
// owns is the virtual environment directory itself and the provision-state
// file written next to it.
package model

import (
	"fmt"
	"strings"
	"time"
)

// EnvState represents the provisioning state of the launch environment.
// The state transitions are:
//
//	Missing → (create) → Stale → (install) → Ready
//	Ready → Stale (when the dependency manifest changes on disk)
type EnvState string

const (
	// StateMissing indicates the virtual environment directory does not
	// exist yet. The next run will create it.
	StateMissing EnvState = "missing"

	// StateStale indicates the virtual environment exists but the recorded
	// manifest checksum does not match the manifest on disk (or no install
	// has been recorded yet). Dependencies may be incomplete or outdated.
	StateStale EnvState = "stale"

	// StateReady indicates the virtual environment exists and the recorded
	// manifest checksum matches the manifest on disk.
	StateReady EnvState = "ready"
)

// String returns the string representation of EnvState.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands.
func (s EnvState) String() string {
	return string(s)
}

// IsValid checks whether the EnvState value is one of the
// predefined valid states.
func (s EnvState) IsValid() bool {
	switch s {
	case StateMissing, StateStale, StateReady:
		return true
	default:
		return false
	}
}

// ParseEnvState converts a string to an EnvState.
// Returns an error if the string does not match any valid state.
func ParseEnvState(s string) (EnvState, error) {
	state := EnvState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid environment state: %q (valid: missing, stale, ready)", s)
	}
	return state, nil
}

// RunMode selects how the target program is executed.
type RunMode string

const (
	// ModeVenv runs the target through the virtual environment's own
	// interpreter on the host. This is the default mode and matches the
	// original launcher's behavior.
	ModeVenv RunMode = "venv"

	// ModeContainer runs the target inside a Python container image with
	// the base directory bind-mounted. Requires a reachable Docker daemon.
	ModeContainer RunMode = "container"
)

// String returns the string representation of RunMode.
func (m RunMode) String() string {
	return string(m)
}

// IsValid checks whether the RunMode value is one of the
// predefined valid modes.
func (m RunMode) IsValid() bool {
	switch m {
	case ModeVenv, ModeContainer:
		return true
	default:
		return false
	}
}

// ParseRunMode converts a string to a RunMode.
// Returns an error if the string does not match any valid mode.
func ParseRunMode(s string) (RunMode, error) {
	mode := RunMode(strings.ToLower(s))
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid run mode: %q (valid: venv, container)", s)
	}
	return mode, nil
}

// LaunchEnv is a snapshot of the launcher's base directory, assembled at
// runtime by probing the filesystem and PATH. It is the primary aggregate
// entity in the domain and drives both the status command output and the
// provisioning decisions of the run/setup commands.
type LaunchEnv struct {
	// BaseDir is the absolute path of the directory all relative
	// operations are anchored to. Defaults to the directory containing
	// the launcher executable.
	BaseDir string `json:"baseDir"`

	// Interpreter is the absolute path of the system Python interpreter
	// discovered on PATH. Empty when no interpreter was found.
	Interpreter string `json:"interpreter,omitempty"`

	// InterpreterVersion is the version string reported by the discovered
	// interpreter (e.g., "3.12.1"). Empty when probing failed.
	InterpreterVersion string `json:"interpreterVersion,omitempty"`

	// VenvDir is the absolute path of the virtual environment directory.
	VenvDir string `json:"venvDir"`

	// ManifestPath is the absolute path of the dependency manifest.
	// The file may or may not exist; see ManifestPresent.
	ManifestPath string `json:"manifestPath"`

	// ManifestPresent reports whether the dependency manifest exists.
	// When false, the installation step is skipped entirely.
	ManifestPresent bool `json:"manifestPresent"`

	// TargetPath is the absolute path of the target program the launcher
	// hands off to.
	TargetPath string `json:"targetPath"`

	// State is the provisioning state derived from the venv directory and
	// the recorded manifest checksum.
	State EnvState `json:"state"`

	// ProvisionedAt is the timestamp of the last successful dependency
	// install, taken from the provision-state file. Zero when no install
	// has been recorded.
	ProvisionedAt time.Time `json:"provisionedAt,omitempty"`
}

// ExitCode defines the CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine the outcome of a command.
//
// Code 1 doubles as the "interpreter not found" code: the original
// launcher exits 1 in that case, and that contract is preserved.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	// Also returned when no Python interpreter is discoverable on PATH.
	ExitGeneralError ExitCode = 1

	// ExitProvisionFailed indicates the virtual environment could not
	// be created.
	ExitProvisionFailed ExitCode = 2

	// ExitInstallFailed indicates the dependency installer exited with
	// a non-zero status.
	ExitInstallFailed ExitCode = 3

	// ExitConfigError indicates launcher.json exists but could not be
	// parsed or contains invalid values.
	ExitConfigError ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	// Only relevant in container run mode.
	ExitDockerNotRunning ExitCode = 5

	// ExitTargetNotFound indicates the target program does not exist in
	// the base directory.
	ExitTargetNotFound ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// TargetExitError signals that the target program ran to completion and
// exited with a non-zero status. The launcher must exit with the same
// code without printing anything: the target's own stderr already went
// straight through to the user, and adding a launcher message would
// break the transparent-passthrough contract.
type TargetExitError struct {
	// Code is the exit status reported by the target program.
	Code int
}

// Error satisfies the error interface. The message is only ever seen by
// callers inspecting the error programmatically, never printed by the CLI.
func (e *TargetExitError) Error() string {
	return fmt.Sprintf("target program exited with status %d", e.Code)
}
