// Package model defines the domain types and value objects for the
// flight-launcher CLI.
//
// This package contains pure data structures with no external dependencies.
// The central entity (LaunchEnv) is a transient snapshot of the launcher's
// base directory: which interpreter was found, whether the virtual
// environment exists, and whether the dependency manifest matches the
// recorded provision state.
//
// The package also defines exit codes (ExitCode) and two error types:
// CLIError, which carries an exit code for proper OS process exit handling,
// and TargetExitError, which propagates the target program's exit status
// verbatim without any launcher-side message.
package model
