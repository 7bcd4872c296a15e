// env.go holds the provisioning orchestration shared by the run and
// setup commands, plus the read-only environment snapshot used by status.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/skellner/flight-launcher/internal/config"
	"github.com/skellner/flight-launcher/internal/model"
	"github.com/skellner/flight-launcher/internal/python"
	"github.com/skellner/flight-launcher/internal/venv"
)

// fileExists reports whether path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// buildEnv assembles a read-only snapshot of the launch environment.
// It probes PATH and the filesystem but never writes anything, so the
// status command can run safely in any directory.
func buildEnv(ctx context.Context, baseDir string, cfg *config.Config) *model.LaunchEnv {
	env := &model.LaunchEnv{
		BaseDir:      baseDir,
		VenvDir:      config.ResolvePath(baseDir, cfg.VenvDir),
		ManifestPath: config.ResolvePath(baseDir, cfg.Manifest),
		TargetPath:   config.ResolvePath(baseDir, cfg.Target),
	}

	if _, err := os.Stat(env.ManifestPath); err == nil {
		env.ManifestPresent = true
	}

	// Interpreter discovery is advisory here: status reports a missing
	// interpreter instead of failing on it.
	if interp, err := python.Find(cfg.Interpreters); err == nil {
		env.Interpreter = interp
		if version, err := python.Probe(ctx, interp); err == nil {
			env.InterpreterVersion = version
		}
	}

	st := venv.LoadState(baseDir)
	env.ProvisionedAt = st.InstalledAt

	checksum := ""
	if env.ManifestPresent {
		// A read failure leaves the checksum empty, which derives to
		// "stale" — the safe answer for an unreadable manifest.
		checksum, _ = venv.ManifestChecksum(env.ManifestPath)
	}
	env.State = venv.DeriveState(env.VenvDir, env.ManifestPresent, st, checksum)

	return env
}

// provision executes the bootstrap sequence: interpreter check, at-most-once
// environment creation, and dependency installation. It is shared by the
// run command (which hands off afterwards) and the setup command (which
// stops here).
//
// Ordering matters for the launcher contract: the interpreter check comes
// first, so when no interpreter exists the command exits 1 having written
// nothing to the filesystem.
func provision(ctx context.Context, baseDir string, cfg *config.Config) (*model.LaunchEnv, error) {
	// Step 1: Interpreter check. Fatal when nothing resolves — exit 1,
	// no retry, per the launcher contract.
	interpreter, err := python.Find(cfg.Interpreters)
	if err != nil {
		return nil, err
	}
	VerboseLog("Using interpreter: %s", interpreter)

	venvDir := config.ResolvePath(baseDir, cfg.VenvDir)
	manifestPath := config.ResolvePath(baseDir, cfg.Manifest)
	st := venv.LoadState(baseDir)

	// Step 2: Environment creation, gated solely on existence.
	// Repeated runs against an existing environment are no-ops.
	if venv.Exists(venvDir) {
		VerboseLog("Virtual environment already exists: %s", venvDir)
	} else {
		VerboseLog("Creating virtual environment: %s", venvDir)
		if err := venv.Create(ctx, interpreter, venvDir); err != nil {
			return nil, err
		}

		st.CreatedAt = time.Now().UTC()
		if version, probeErr := python.Probe(ctx, interpreter); probeErr == nil {
			st.PythonVersion = version
		}
		// State persistence is best-effort: the environment itself is the
		// source of truth, the state file only refines status output.
		if saveErr := st.Save(baseDir); saveErr != nil {
			VerboseLog("Warning: %v", saveErr)
		}
	}

	// Step 3: Dependency installation, skipped when no manifest exists.
	manifestPresent := false
	if _, statErr := os.Stat(manifestPath); statErr == nil {
		manifestPresent = true
	}

	if !manifestPresent {
		VerboseLog("No dependency manifest at %s, skipping install", manifestPath)
	} else {
		checksum, sumErr := venv.ManifestChecksum(manifestPath)

		if cfg.SkipUnchanged && sumErr == nil && checksum == st.ManifestChecksum && checksum != "" {
			VerboseLog("Manifest unchanged since last install, skipping (skipUnchanged)")
		} else {
			VerboseLog("Installing dependencies from %s", manifestPath)
			if err := venv.Install(ctx, venvDir, manifestPath, cfg.PipArgs); err != nil {
				return nil, err
			}

			if sumErr == nil {
				st.ManifestChecksum = checksum
			}
			st.InstalledAt = time.Now().UTC()
			if saveErr := st.Save(baseDir); saveErr != nil {
				VerboseLog("Warning: %v", saveErr)
			}
		}
	}

	return buildEnv(ctx, baseDir, cfg), nil
}
