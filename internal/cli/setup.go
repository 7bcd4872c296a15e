// Package cli — setup.go implements the "flight-launcher setup" command.
//
// setup runs the provisioning half of the launch sequence without the
// handoff: interpreter check, environment creation, dependency install.
// It is useful for preparing a deployment ahead of time (e.g., during
// image builds) so the first real run starts instantly.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skellner/flight-launcher/internal/config"
	"github.com/skellner/flight-launcher/internal/model"
)

// NewSetupCommand creates the "setup" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Provision the environment without launching the target",
		Long: `Create the virtual environment (if absent) and install the dependency
manifest (if present), then stop. The target program is not launched.

Running setup repeatedly is safe: an existing environment is reused, and
pip only acts on requirements that are not yet satisfied.

Examples:
  flight-launcher setup
  flight-launcher setup --dir /opt/flight-tracker
  flight-launcher setup --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context())
		},
	}
}

// runSetup is the main logic function for the setup command.
func runSetup(ctx context.Context) error {
	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}
	VerboseLog("Base directory: %s", baseDir)

	cfg, err := config.LoadFromDir(baseDir)
	if err != nil {
		return err
	}

	env, err := provision(ctx, baseDir, cfg)
	if err != nil {
		return err
	}

	printSetupResult(env)
	return nil
}

// printSetupResult outputs the provisioning outcome in text or JSON
// format, depending on the --json flag.
func printSetupResult(env *model.LaunchEnv) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(env, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Environment ready at %s\n", env.VenvDir)
	fmt.Printf("  Interpreter: %s", env.Interpreter)
	if env.InterpreterVersion != "" {
		fmt.Printf(" (Python %s)", env.InterpreterVersion)
	}
	fmt.Println()

	if env.ManifestPresent {
		fmt.Printf("  Manifest:    %s (installed)\n", env.ManifestPath)
	} else {
		fmt.Printf("  Manifest:    none\n")
	}
	fmt.Printf("  State:       %s\n", env.State)
}
