// Package cli — clean.go implements the "flight-launcher clean" command.
//
// clean removes the virtual environment directory and the provision-state
// file. The next run starts from scratch: environment creation, then a
// full dependency install. Nothing else in the base directory is touched.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skellner/flight-launcher/internal/config"
	"github.com/skellner/flight-launcher/internal/model"
	"github.com/skellner/flight-launcher/internal/venv"
)

// NewCleanCommand creates the "clean" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the virtual environment",
		Long: `Delete the virtual environment directory and the provision-state file.
The target program, its manifest, and everything else in the base
directory are left untouched.

Cleaning a directory that has no environment is a no-op.

Examples:
  flight-launcher clean
  flight-launcher clean --dir /opt/flight-tracker`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean()
		},
	}
}

// runClean is the main logic function for the clean command.
func runClean() error {
	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromDir(baseDir)
	if err != nil {
		return err
	}

	venvDir := config.ResolvePath(baseDir, cfg.VenvDir)

	// Refuse to remove anything that is not actually a virtual
	// environment: a mistyped venvDir in launcher.json must not turn
	// clean into rm -rf of an arbitrary directory.
	if info, statErr := os.Stat(venvDir); statErr == nil {
		if !info.IsDir() || !venv.Exists(venvDir) {
			return model.NewCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("refusing to remove %s: not a virtual environment (no pyvenv.cfg)", venvDir),
			)
		}

		VerboseLog("Removing virtual environment: %s", venvDir)
		if err := os.RemoveAll(venvDir); err != nil {
			return model.WrapCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("failed to remove virtual environment %s", venvDir),
				err,
			)
		}
		fmt.Printf("Removed %s\n", venvDir)
	} else {
		VerboseLog("No virtual environment at %s", venvDir)
		fmt.Printf("Nothing to clean in %s\n", filepath.Dir(venvDir))
	}

	if err := venv.RemoveState(baseDir); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to remove provision state", err)
	}

	return nil
}
