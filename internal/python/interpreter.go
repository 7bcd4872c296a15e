// Package python locates Python interpreters and resolves paths inside
// virtual environments.
//
// Discovery probes a list of candidate binary names on PATH in priority
// order and returns the first hit. A missing interpreter is fatal for the
// launcher (exit code 1) — there is no retry and no fallback, matching
// the original launcher's contract.
package python

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/skellner/flight-launcher/internal/model"
)

// probeTimeout bounds the version probe. A healthy interpreter answers
// --version in milliseconds; anything slower is effectively broken and
// should not hang the launcher.
const probeTimeout = 5 * time.Second

// versionRegex extracts the numeric version from interpreter output like
// "Python 3.12.1". Some builds append vendor suffixes after the number,
// which the expression ignores.
var versionRegex = regexp.MustCompile(`Python\s+(\d+(?:\.\d+)*)`)

// Find probes the candidate interpreter names on PATH, in order, and
// returns the absolute path of the first one that resolves.
//
// Returns a model.CLIError with ExitGeneralError (exit code 1, per the
// launcher contract) when none of the candidates is found.
func Find(candidates []string) (string, error) {
	for _, name := range candidates {
		// exec.LookPath resolves the name against PATH the same way the
		// shell's command -v does, including the executable-bit check.
		path, err := exec.LookPath(name)
		if err == nil {
			return path, nil
		}
	}

	return "", model.NewCLIError(
		model.ExitGeneralError,
		fmt.Sprintf("no Python interpreter found on PATH (tried: %s)", strings.Join(candidates, ", ")),
	)
}

// Probe runs "<interpreter> --version" and returns the reported version
// number (e.g., "3.12.1").
//
// CombinedOutput is used because Python 2 printed its version banner to
// stderr while Python 3 uses stdout. A probe failure is returned as a
// plain error: callers treat the version as advisory (status display),
// not as a launch precondition.
func Probe(ctx context.Context, interpreter string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, interpreter, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to probe %s: %w", interpreter, err)
	}

	version := ParseVersion(string(out))
	if version == "" {
		return "", fmt.Errorf("unrecognized version output from %s: %q", interpreter, strings.TrimSpace(string(out)))
	}
	return version, nil
}

// ParseVersion extracts the numeric version from a "--version" banner.
// Returns the empty string when the output does not look like a Python
// version line.
func ParseVersion(output string) string {
	m := versionRegex.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}

// VenvInterpreter returns the path of the interpreter binary inside a
// virtual environment directory.
//
// The venv layout differs by platform: POSIX systems use bin/python,
// Windows uses Scripts\python.exe. The binary is created by the venv
// module at environment creation time.
func VenvInterpreter(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// VenvPip returns the arguments for invoking pip through the virtual
// environment's interpreter. Running "python -m pip" instead of the pip
// script directly sidesteps shebang-length limits on deeply nested paths
// and guarantees the environment's own pip is used.
func VenvPip(venvDir string) []string {
	return []string{VenvInterpreter(venvDir), "-m", "pip"}
}
