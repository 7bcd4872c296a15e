package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skellner/flight-launcher/internal/config"
	"github.com/skellner/flight-launcher/internal/model"
	"github.com/skellner/flight-launcher/internal/venv"
)

// installFakePython puts a python3 stand-in on PATH that emulates the
// three invocations provisioning makes: "--version", "-m venv <dir>"
// (creates the environment and copies itself in as the venv interpreter),
// and "-m pip install ..." (a no-op). Every invocation is appended to a
// log file so tests can assert how often each step ran.
func installFakePython(t *testing.T) (logFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter scripts require a POSIX shell")
	}

	binDir := t.TempDir()
	logFile = filepath.Join(binDir, "calls.log")

	script := `#!/bin/sh
echo "$@" >> "$LAUNCHER_TEST_LOG"
case "$1" in
  --version) echo "Python 3.12.1" ;;
  -m)
    if [ "$2" = "venv" ]; then
      mkdir -p "$3/bin"
      touch "$3/pyvenv.cfg"
      cp "$0" "$3/bin/python"
    fi
    ;;
esac
exit 0
`
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "python3"), []byte(script), 0755))

	// binDir comes first so the fake interpreter shadows any real one;
	// the standard directories stay on PATH so the script's own mkdir,
	// touch, and cp invocations resolve.
	t.Setenv("PATH", binDir+":/usr/bin:/bin")
	t.Setenv("LAUNCHER_TEST_LOG", logFile)
	return logFile
}

// countCalls returns how many logged invocations contain the marker.
func countCalls(t *testing.T, logFile, marker string) int {
	t.Helper()
	data, err := os.ReadFile(logFile)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)

	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, marker) {
			count++
		}
	}
	return count
}

// TestProvision_CreatesAndInstalls covers the first-run path: environment
// created, manifest installed, state recorded.
func TestProvision_CreatesAndInstalls(t *testing.T) {
	logFile := installFakePython(t)
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(baseDir, "requirements.txt"), []byte("requests==2.31.0\n"), 0644))

	env, err := provision(context.Background(), baseDir, config.Default())
	require.NoError(t, err)

	assert.True(t, venv.Exists(env.VenvDir))
	assert.Equal(t, model.StateReady, env.State)
	assert.Equal(t, 1, countCalls(t, logFile, "-m venv"))
	assert.Equal(t, 1, countCalls(t, logFile, "pip install"))

	// The provision state records the manifest checksum.
	st := venv.LoadState(baseDir)
	assert.NotEmpty(t, st.ManifestChecksum)
	assert.Equal(t, "3.12.1", st.PythonVersion)
	assert.False(t, st.InstalledAt.IsZero())
}

// TestProvision_Idempotent verifies the two load-bearing repeat-run
// properties: the environment is created at most once, but the installer
// still runs on every launch while a manifest is present.
func TestProvision_Idempotent(t *testing.T) {
	logFile := installFakePython(t)
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(baseDir, "requirements.txt"), []byte("requests\n"), 0644))

	ctx := context.Background()
	_, err := provision(ctx, baseDir, config.Default())
	require.NoError(t, err)
	_, err = provision(ctx, baseDir, config.Default())
	require.NoError(t, err)

	assert.Equal(t, 1, countCalls(t, logFile, "-m venv"), "venv created at most once")
	assert.Equal(t, 2, countCalls(t, logFile, "pip install"), "installer runs on every launch")
}

// TestProvision_SkipUnchanged verifies the opt-in checksum gate: with
// skipUnchanged set, the installer is skipped while the manifest is
// unmodified and runs again after an edit.
func TestProvision_SkipUnchanged(t *testing.T) {
	logFile := installFakePython(t)
	baseDir := t.TempDir()
	manifest := filepath.Join(baseDir, "requirements.txt")
	require.NoError(t, os.WriteFile(manifest, []byte("requests==2.31.0\n"), 0644))

	cfg := config.Default()
	cfg.SkipUnchanged = true

	ctx := context.Background()
	_, err := provision(ctx, baseDir, cfg)
	require.NoError(t, err)
	_, err = provision(ctx, baseDir, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, countCalls(t, logFile, "pip install"), "unchanged manifest skips install")

	// Edit the manifest: the next run must install again.
	require.NoError(t, os.WriteFile(manifest, []byte("requests==2.32.0\n"), 0644))
	_, err = provision(ctx, baseDir, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, countCalls(t, logFile, "pip install"), "edited manifest reinstalls")
}

// TestProvision_NoManifest verifies the install step is skipped entirely
// when no manifest exists, and the environment still counts as ready.
func TestProvision_NoManifest(t *testing.T) {
	logFile := installFakePython(t)
	baseDir := t.TempDir()

	env, err := provision(context.Background(), baseDir, config.Default())
	require.NoError(t, err)

	assert.Equal(t, model.StateReady, env.State)
	assert.Equal(t, 0, countCalls(t, logFile, "pip install"))
}

// TestProvision_NoInterpreter verifies the launcher contract for a
// missing interpreter: exit code 1 and no filesystem writes.
func TestProvision_NoInterpreter(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(baseDir, "requirements.txt"), []byte("requests\n"), 0644))

	_, err := provision(context.Background(), baseDir, config.Default())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)

	// No partial environment and no state file may exist.
	_, statErr := os.Stat(filepath.Join(baseDir, config.DefaultVenvDir))
	assert.True(t, os.IsNotExist(statErr), "no venv directory may be created")
	_, statErr = os.Stat(venv.StatePath(baseDir))
	assert.True(t, os.IsNotExist(statErr), "no state file may be written")
}

// TestBuildEnv verifies the read-only snapshot over a populated base
// directory.
func TestBuildEnv(t *testing.T) {
	installFakePython(t)
	baseDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(baseDir, "requirements.txt"), []byte("requests\n"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(baseDir, "flight_tracker.py"), []byte("# tracker\n"), 0644))

	env := buildEnv(context.Background(), baseDir, config.Default())

	assert.Equal(t, baseDir, env.BaseDir)
	assert.Equal(t, filepath.Join(baseDir, ".venv"), env.VenvDir)
	assert.True(t, env.ManifestPresent)
	assert.Equal(t, "3.12.1", env.InterpreterVersion)
	assert.Equal(t, model.StateMissing, env.State, "no venv yet")

	// buildEnv must not have created anything.
	_, statErr := os.Stat(env.VenvDir)
	assert.True(t, os.IsNotExist(statErr))
}

// TestResolveBaseDir_DirFlag verifies the --dir override, including the
// rejection of nonexistent paths.
func TestResolveBaseDir_DirFlag(t *testing.T) {
	orig := baseDirFlag
	t.Cleanup(func() { baseDirFlag = orig })

	dir := t.TempDir()
	baseDirFlag = dir

	got, err := resolveBaseDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	baseDirFlag = filepath.Join(dir, "does-not-exist")
	_, err = resolveBaseDir()
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}

// TestFileExists verifies the regular-file check.
func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.txt")

	assert.False(t, fileExists(path))
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))
	assert.True(t, fileExists(path))
	assert.False(t, fileExists(dir), "directories are not files")
}
