// Package cli implements the cobra-based CLI commands for flight-launcher.
//
// Each subcommand (run, setup, status, clean) is defined in its own file
// within this package. This file defines the root command that serves as
// the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skellner/flight-launcher/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// Errors are also emitted as JSON when set. The target program's own
	// output is never touched: handoff is always a raw passthrough.
	jsonOutput bool

	// verbose enables step-by-step progress output on stderr.
	verbose bool

	// baseDirFlag overrides the base directory. When empty, the directory
	// containing the launcher executable is used, matching the original
	// script's "cd to its own location" behavior.
	baseDirFlag string
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself performs no action — it provides help text and
// global flags. Actual functionality lives in the subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flight-launcher",
		Short: "Bootstrap an isolated Python environment and launch the flight tracker",
		Long: `flight-launcher provisions an isolated Python virtual environment next to
the flight tracker, installs its declared dependencies, and hands execution
off to it with all arguments forwarded unchanged.

Provisioning is idempotent: the environment is created at most once, and
subsequent launches reuse it. Every provisioning step is error-checked; a
failed step aborts the launch instead of running the tracker against a
broken environment.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&baseDirFlag, "dir", "C", "",
		"Base directory (default: the directory containing this executable)")

	// Register subcommands. Each subcommand is defined in its own file
	// (run.go, setup.go, etc.) and returns a *cobra.Command.
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewSetupCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewCleanCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// Error translation, in order of precedence:
//  1. TargetExitError — the target ran and exited non-zero. The launcher
//     exits with the same code and prints nothing: the target's output
//     already went straight through to the user.
//  2. CLIError — a launcher failure with a typed exit code.
//  3. Anything else — exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var targetErr *model.TargetExitError
		if errors.As(err, &targetErr) {
			os.Exit(targetErr.Code)
		}

		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode, because stdout is
		// reserved for successful command output (and for the target's
		// own output during handoff).
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// resolveBaseDir determines the base directory all relative operations
// anchor to.
//
// With --dir set, that path is made absolute and used. Otherwise the
// directory containing the launcher executable is used, with symlinks
// resolved — the original script's "cd $(dirname $0)". Any resolution
// failure is fatal (exit 1); silently proceeding in the wrong directory
// would risk provisioning an environment somewhere unexpected.
func resolveBaseDir() (string, error) {
	if baseDirFlag != "" {
		abs, err := filepath.Abs(baseDirFlag)
		if err != nil {
			return "", model.WrapCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("failed to resolve base directory %q", baseDirFlag),
				err,
			)
		}

		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return "", model.NewCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("base directory does not exist: %s", abs),
			)
		}
		return abs, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitGeneralError,
			"failed to locate launcher executable",
			err,
		)
	}

	// Resolve symlinks so a launcher symlinked into ~/bin still anchors
	// at its real location, where the tracker and manifest live.
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("failed to resolve launcher executable path %q", exe),
			err,
		)
	}

	return filepath.Dir(resolved), nil
}
