// Package cli — run.go implements the "flight-launcher run" command.
//
// run is the primary operation and reproduces the original launcher's
// whole job: resolve the base directory, verify an interpreter exists,
// create the virtual environment if absent, install declared dependencies,
// and hand execution off to the target with all arguments forwarded
// verbatim. The target's exit code becomes the launcher's exit code.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/skellner/flight-launcher/internal/config"
	"github.com/skellner/flight-launcher/internal/container"
	"github.com/skellner/flight-launcher/internal/launch"
	"github.com/skellner/flight-launcher/internal/model"
	"github.com/skellner/flight-launcher/internal/python"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	// containerMode forces container mode regardless of launcher.json.
	containerMode bool

	// image overrides the container image from launcher.json.
	image string
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [-- <target args>...]",
		Short: "Provision the environment and launch the flight tracker",
		Long: `Provision the Python virtual environment (creating it only when absent,
installing dependencies when a manifest is present) and launch the target
program through the environment's own interpreter.

Everything after "--" is forwarded to the target unchanged: count, order,
and content are preserved exactly, including arguments with spaces.

Examples:
  flight-launcher run
  flight-launcher run -- --interval 5
  flight-launcher run -- --url http://daphnis:8080/data/aircraft.json
  flight-launcher run --container -- --interval 10`,

		// The target defines its own argument surface; anything goes.
		Args: cobra.ArbitraryArgs,

		// RunE is used instead of Run so errors (including the target's
		// exit status) reach the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.containerMode, "container", false,
		"Run the target in a Python container instead of a host venv")
	cmd.Flags().StringVar(&flags.image, "image", "",
		"Container image for --container mode (default from launcher.json)")

	return cmd
}

// runRun is the main orchestration function for the run command.
func runRun(ctx context.Context, targetArgs []string, flags *runFlags) error {
	// Step 1: Resolve the base directory — the launcher's own location
	// unless overridden with --dir.
	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}
	VerboseLog("Base directory: %s", baseDir)

	// Step 2: Load configuration (defaults when no launcher.json exists).
	cfg, err := config.LoadFromDir(baseDir)
	if err != nil {
		return err
	}

	mode := cfg.Mode
	if flags.containerMode {
		mode = model.ModeContainer
	}
	if flags.image != "" {
		cfg.ContainerImage = flags.image
	}
	VerboseLog("Run mode: %s", mode)

	if mode == model.ModeContainer {
		return runInContainer(ctx, baseDir, cfg, targetArgs)
	}

	// Step 3: Provision — interpreter check, at-most-once venv creation,
	// manifest install. Any failed step aborts before the handoff.
	env, err := provision(ctx, baseDir, cfg)
	if err != nil {
		return err
	}

	// Step 4: Handoff through the environment's own interpreter, never
	// the system one. The launcher contributes nothing to the target's
	// stdio; its exit code is propagated verbatim by Execute.
	VerboseLog("Launching %s with %d argument(s)", env.TargetPath, len(targetArgs))
	return launch.Run(ctx, launch.Options{
		Interpreter: python.VenvInterpreter(env.VenvDir),
		Script:      env.TargetPath,
		Args:        targetArgs,
		Dir:         baseDir,
	})
}

// runInContainer launches the target inside a Python container with the
// base directory bind-mounted. The host venv is not touched in this mode;
// dependencies install into the container's ephemeral filesystem.
func runInContainer(ctx context.Context, baseDir string, cfg *config.Config, targetArgs []string) error {
	// Verify the daemon is reachable before starting; "docker run"
	// failures alone produce much murkier errors.
	cli, err := container.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Docker daemon reachable, using image %s", cfg.ContainerImage)

	manifest := ""
	if path := config.ResolvePath(baseDir, cfg.Manifest); fileExists(path) {
		manifest = cfg.Manifest
	}

	return container.RunTarget(ctx, container.RunOptions{
		Image:    cfg.ContainerImage,
		BaseDir:  baseDir,
		Target:   cfg.Target,
		Manifest: manifest,
		Args:     targetArgs,
	})
}
