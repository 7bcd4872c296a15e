package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skellner/flight-launcher/internal/model"
)

// fakeInterpreter writes an executable shell script standing in for the
// venv's python binary. The script receives the target script path as $1
// and the forwarded arguments after it, mirroring how the launcher
// invokes "python <script> <args...>".
func fakeInterpreter(t *testing.T, dir, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter scripts require a POSIX shell")
	}

	path := filepath.Join(dir, "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// writeTarget creates an empty file standing in for the target script.
// The fake interpreter never reads it; Run only checks its existence.
func writeTarget(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "flight_tracker.py")
	require.NoError(t, os.WriteFile(path, []byte("# target\n"), 0644))
	return path
}

// TestRun_ForwardsArgumentsVerbatim verifies the core launcher property:
// the target receives exactly the argument list the launcher got, in
// order, unmodified — including empty strings, spaces, and shell
// metacharacters.
func TestRun_ForwardsArgumentsVerbatim(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")

	// Shift away the script path ($1), then record each remaining
	// argument on its own line.
	interp := fakeInterpreter(t, dir, "shift\nprintf '%s\\n' \"$@\" > "+argsFile+"\n")
	target := writeTarget(t, dir)

	forwarded := []string{"--interval", "5", "two words", "", "$HOME;echo *"}
	err := Run(context.Background(), Options{
		Interpreter: interp,
		Script:      target,
		Args:        forwarded,
		Dir:         dir,
	})
	require.NoError(t, err)

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "--interval\n5\ntwo words\n\n$HOME;echo *\n", string(recorded))
}

// TestRun_EmptyArgumentList verifies that an empty forwarded list results
// in the target being invoked with only the script path.
func TestRun_EmptyArgumentList(t *testing.T) {
	dir := t.TempDir()
	countFile := filepath.Join(dir, "count.txt")

	interp := fakeInterpreter(t, dir, "shift\necho $# > "+countFile+"\n")
	target := writeTarget(t, dir)

	err := Run(context.Background(), Options{
		Interpreter: interp,
		Script:      target,
		Dir:         dir,
	})
	require.NoError(t, err)

	recorded, err := os.ReadFile(countFile)
	require.NoError(t, err)
	assert.Equal(t, "0\n", string(recorded))
}

// TestRun_PropagatesExitCode verifies that the target's non-zero exit
// status comes back as a TargetExitError with the same code.
func TestRun_PropagatesExitCode(t *testing.T) {
	dir := t.TempDir()
	interp := fakeInterpreter(t, dir, "exit 7\n")
	target := writeTarget(t, dir)

	err := Run(context.Background(), Options{
		Interpreter: interp,
		Script:      target,
		Dir:         dir,
	})
	require.Error(t, err)

	var targetErr *model.TargetExitError
	require.True(t, errors.As(err, &targetErr), "error should be a *model.TargetExitError")
	assert.Equal(t, 7, targetErr.Code)
}

// TestRun_WorkingDirectory verifies the target runs with the base
// directory as its working directory, so its relative-path file access
// (config.txt and friends) resolves there.
func TestRun_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	pwdFile := filepath.Join(dir, "pwd.txt")

	interp := fakeInterpreter(t, dir, "pwd > "+pwdFile+"\n")
	target := writeTarget(t, dir)

	err := Run(context.Background(), Options{
		Interpreter: interp,
		Script:      target,
		Dir:         dir,
	})
	require.NoError(t, err)

	recorded, err := os.ReadFile(pwdFile)
	require.NoError(t, err)

	// Resolve symlinks on both sides: t.TempDir may live under a
	// symlinked /tmp (e.g., /private/tmp on macOS).
	wantDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(string(recorded[:len(recorded)-1]))
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
}

// TestRun_TargetMissing verifies a missing target aborts with
// ExitTargetNotFound before any process is spawned.
func TestRun_TargetMissing(t *testing.T) {
	dir := t.TempDir()
	interp := fakeInterpreter(t, dir, "exit 0\n")

	err := Run(context.Background(), Options{
		Interpreter: interp,
		Script:      filepath.Join(dir, "nope.py"),
		Dir:         dir,
	})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitTargetNotFound, cliErr.Code)
}

// TestRun_ExtraEnv verifies extra environment entries reach the target
// on top of the inherited environment.
func TestRun_ExtraEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env.txt")

	interp := fakeInterpreter(t, dir, "echo \"$LAUNCHER_MARKER\" > "+envFile+"\n")
	target := writeTarget(t, dir)

	err := Run(context.Background(), Options{
		Interpreter: interp,
		Script:      target,
		Dir:         dir,
		Env:         []string{"LAUNCHER_MARKER=on"},
	})
	require.NoError(t, err)

	recorded, err := os.ReadFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, "on\n", string(recorded))
}
