// Package launch hands execution off to the target program.
//
// The handoff model is spawn-and-wait with full passthrough: the child
// inherits stdin/stdout/stderr, receives the forwarded arguments exactly
// as the launcher got them, and its exit code becomes the launcher's exit
// code. SIGINT and SIGTERM received by the launcher while the child runs
// are relayed to it, so Ctrl-C reaches the target instead of killing only
// the wrapper.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/skellner/flight-launcher/internal/model"
)

// Options describes a single handoff invocation.
type Options struct {
	// Interpreter is the path of the interpreter binary to run the
	// script with. For venv mode this is the environment's own python,
	// never the system one.
	Interpreter string

	// Script is the path of the target program.
	Script string

	// Args are the arguments forwarded to the target, verbatim and in
	// order. Count, order, and content are preserved exactly, including
	// arguments containing spaces or shell metacharacters — os/exec
	// passes an argv vector, so no re-quoting ever happens.
	Args []string

	// Dir is the working directory for the target. All of the target's
	// relative-path operations (config.txt, data files) resolve here.
	Dir string

	// Env holds extra environment entries in "KEY=value" form, appended
	// to the inherited environment. Nil means inherit only.
	Env []string
}

// Run executes the target program and blocks until it exits.
//
// Returns nil when the target exits 0, a *model.TargetExitError carrying
// the target's status when it exits non-zero, and a *model.CLIError when
// the target cannot be started at all.
func Run(ctx context.Context, opts Options) error {
	// The target must exist before we spawn: exec would fail anyway, but
	// with a confusing interpreter-side traceback instead of a clear
	// launcher error.
	if _, err := os.Stat(opts.Script); err != nil {
		return model.WrapCLIError(
			model.ExitTargetNotFound,
			fmt.Sprintf("target program not found: %s", opts.Script),
			err,
		)
	}

	args := make([]string, 0, len(opts.Args)+1)
	args = append(args, opts.Script)
	args = append(args, opts.Args...)

	cmd := exec.CommandContext(ctx, opts.Interpreter, args...)
	cmd.Dir = opts.Dir

	// Full stdio passthrough: the target owns the terminal for its
	// lifetime. The flight tracker drives an interactive TUI, so pipes
	// or captured buffers would break it.
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, opts.Env...)

	if err := cmd.Start(); err != nil {
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to start target program %s", opts.Script),
			err,
		)
	}

	// Relay termination signals to the child for the duration of the run.
	// Without this, a SIGTERM to the launcher would orphan the target.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				// Errors are ignored: the child may already have exited,
				// in which case Wait below reports its status.
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)
	signal.Stop(sigCh)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &model.TargetExitError{Code: exitCode(exitErr)}
		}
		return model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("target program %s did not run to completion", opts.Script),
			err,
		)
	}
	return nil
}

// exitCode extracts a propagatable exit code from an ExitError.
// When the child was killed by a signal, ExitCode() reports -1; the
// shell convention 128+signal is used instead so the launcher's exit
// status stays meaningful to callers.
func exitCode(exitErr *exec.ExitError) int {
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return int(model.ExitGeneralError)
}
