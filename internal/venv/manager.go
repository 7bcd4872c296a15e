// Package venv provisions and inspects the Python virtual environment
// the launcher hands execution off to.
//
// Provisioning is idempotent: the environment directory's existence is the
// creation gate, so repeated launches never recreate or corrupt an existing
// environment. Dependency installation runs whenever a manifest is present;
// a checksum of the manifest is recorded in the provision-state file so the
// optional skipUnchanged configuration can elide redundant installs.
//
// Every subprocess result is inspected. A non-zero status from the venv
// module or from pip aborts the launch with a typed exit code instead of
// proceeding against a broken environment.
package venv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/skellner/flight-launcher/internal/model"
	"github.com/skellner/flight-launcher/internal/python"
)

// Exists reports whether venvDir contains a virtual environment.
//
// The check requires pyvenv.cfg inside the directory, not just the
// directory itself: an empty or unrelated directory at the venv path
// would otherwise mask a failed earlier creation forever.
func Exists(venvDir string) bool {
	info, err := os.Stat(venvDir)
	if err != nil || !info.IsDir() {
		return false
	}

	// pyvenv.cfg is written by the venv module as the last step of
	// environment creation, which makes it a reliable completeness marker.
	if _, err := os.Stat(filepath.Join(venvDir, "pyvenv.cfg")); err != nil {
		return false
	}
	return true
}

// Create builds a new virtual environment at venvDir using the given
// system interpreter. It must only be called when Exists is false;
// the caller owns the idempotency gate.
//
// On failure the partially created directory is removed so the next run
// starts from a clean slate — a half-built venv that passes the existence
// check would never be repaired otherwise.
func Create(ctx context.Context, interpreter, venvDir string) error {
	cmd := exec.CommandContext(ctx, interpreter, "-m", "venv", venvDir)

	// CombinedOutput captures both streams for the error message; the
	// venv module is silent on success.
	output, err := cmd.CombinedOutput()
	if err != nil {
		// Remove whatever the failed run left behind. RemoveAll on a
		// nonexistent path is a no-op, so this is safe unconditionally.
		_ = os.RemoveAll(venvDir)

		return model.WrapCLIError(
			model.ExitProvisionFailed,
			fmt.Sprintf("failed to create virtual environment at %s: %s",
				venvDir, strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}

// Install runs the environment's own pip against the dependency manifest.
// extraArgs are appended after the built-in arguments, allowing index
// mirrors or cache controls from launcher.json.
//
// pip runs with -q to suppress its progress output (the original launcher
// did the same), but its exit status is checked: a failed install aborts
// the launch with ExitInstallFailed instead of handing off to a target
// with missing dependencies.
func Install(ctx context.Context, venvDir, manifestPath string, extraArgs []string) error {
	// Invoke pip through the venv interpreter ("python -m pip") so the
	// environment's pip is used regardless of PATH contents.
	pip := python.VenvPip(venvDir)
	args := append(pip[1:], "install", "-q", "-r", manifestPath)
	args = append(args, extraArgs...)

	cmd := exec.CommandContext(ctx, pip[0], args...)

	// pip writes errors to stderr; with -q that is essentially all it
	// writes. Capture everything for the failure message.
	output, err := cmd.CombinedOutput()
	if err != nil {
		return model.WrapCLIError(
			model.ExitInstallFailed,
			fmt.Sprintf("dependency installation failed for %s: %s",
				manifestPath, strings.TrimSpace(string(output))),
			err,
		)
	}
	return nil
}

// ManifestChecksum returns the hex-encoded SHA-256 of the dependency
// manifest. The checksum is recorded in the provision-state file after a
// successful install and compared on later runs to detect manifest edits.
func ManifestChecksum(manifestPath string) (string, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// DeriveState computes the environment state from the venv directory,
// the manifest, and the recorded provision state.
//
//	no venv                         → missing
//	venv, no manifest               → ready (nothing to install)
//	venv, manifest, checksum match  → ready
//	venv, manifest, mismatch/none   → stale
func DeriveState(venvDir string, manifestPresent bool, recorded *State, checksum string) model.EnvState {
	if !Exists(venvDir) {
		return model.StateMissing
	}
	if !manifestPresent {
		return model.StateReady
	}
	if recorded != nil && recorded.ManifestChecksum != "" && recorded.ManifestChecksum == checksum {
		return model.StateReady
	}
	return model.StateStale
}
