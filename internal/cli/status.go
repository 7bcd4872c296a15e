// Package cli — status.go implements the "flight-launcher status" command.
//
// status reports the launch environment without modifying anything:
// which interpreter would be used, whether the virtual environment
// exists, whether the dependency manifest matches the last recorded
// install, and whether the target program is present. In container mode
// it additionally checks Docker reachability and lists containers the
// launcher started.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skellner/flight-launcher/internal/config"
	"github.com/skellner/flight-launcher/internal/container"
	"github.com/skellner/flight-launcher/internal/model"
)

// statusReport is the full status output structure. It doubles as the
// JSON schema for --json output.
type statusReport struct {
	// Env is the environment snapshot.
	Env *model.LaunchEnv `json:"env"`

	// Mode is the configured run mode.
	Mode model.RunMode `json:"mode"`

	// TargetPresent reports whether the target program file exists.
	TargetPresent bool `json:"targetPresent"`

	// DockerReachable is set only in container mode.
	DockerReachable *bool `json:"dockerReachable,omitempty"`

	// ContainerRuns lists launcher-started containers. Only populated
	// in container mode when the daemon is reachable.
	ContainerRuns []container.RunInfo `json:"containerRuns,omitempty"`
}

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the launch environment state",
		Long: `Inspect the base directory and report what a run would find: the
interpreter that would be used, the virtual environment's state, the
dependency manifest, and the target program. Nothing is modified.

The state field is one of:
  missing  the virtual environment has not been created yet
  stale    the environment exists but the manifest changed since the
           last recorded install (or no install was recorded)
  ready    the environment exists and matches the recorded install

Examples:
  flight-launcher status
  flight-launcher status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

// runStatus is the main logic function for the status command.
func runStatus(ctx context.Context) error {
	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFromDir(baseDir)
	if err != nil {
		return err
	}

	report := &statusReport{
		Env:  buildEnv(ctx, baseDir, cfg),
		Mode: cfg.Mode,
	}
	report.TargetPresent = fileExists(report.Env.TargetPath)

	// Container mode: daemon reachability and active launcher runs are
	// part of the picture. Failures are reported, not fatal — status
	// should always produce a report.
	if cfg.Mode == model.ModeContainer {
		reachable := false
		if cli, cliErr := container.NewClient(); cliErr == nil {
			if pingErr := cli.Ping(ctx); pingErr == nil {
				reachable = true
				if runs, listErr := container.ListRuns(ctx, cli); listErr == nil {
					report.ContainerRuns = runs
				}
			}
			_ = cli.Close()
		}
		report.DockerReachable = &reachable
	}

	printStatusReport(report)
	return nil
}

// printStatusReport outputs the report in text or JSON format.
func printStatusReport(report *statusReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	env := report.Env

	fmt.Printf("Base directory: %s\n", env.BaseDir)
	fmt.Printf("Run mode:       %s\n", report.Mode)

	if env.Interpreter != "" {
		if env.InterpreterVersion != "" {
			fmt.Printf("Interpreter:    %s (Python %s)\n", env.Interpreter, env.InterpreterVersion)
		} else {
			fmt.Printf("Interpreter:    %s\n", env.Interpreter)
		}
	} else {
		fmt.Printf("Interpreter:    not found\n")
	}

	fmt.Printf("Environment:    %s (%s)\n", env.VenvDir, env.State)

	if env.ManifestPresent {
		fmt.Printf("Manifest:       %s\n", env.ManifestPath)
	} else {
		fmt.Printf("Manifest:       none\n")
	}

	if report.TargetPresent {
		fmt.Printf("Target:         %s\n", env.TargetPath)
	} else {
		fmt.Printf("Target:         %s (missing)\n", env.TargetPath)
	}

	if !env.ProvisionedAt.IsZero() {
		fmt.Printf("Last install:   %s\n", env.ProvisionedAt.Format("2006-01-02 15:04:05 MST"))
	}

	if report.DockerReachable != nil {
		if *report.DockerReachable {
			fmt.Printf("Docker:         reachable\n")
			for _, run := range report.ContainerRuns {
				fmt.Printf("  %s  %s  %s\n", run.ContainerName, run.Image, run.Status)
			}
		} else {
			fmt.Printf("Docker:         unreachable\n")
		}
	}
}
