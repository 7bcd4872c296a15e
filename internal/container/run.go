// run.go starts the target program in a container and lists runs the
// launcher has started.
//
// The run itself shells out to "docker run" rather than driving the SDK's
// ContainerCreate/Attach/Wait sequence: inheriting the launcher's stdio
// through the CLI gives the target the same transparent terminal it gets
// in venv mode, which the SDK attach path does not replicate cheaply.
// Discovery (ListRuns) uses the SDK with a server-side label filter.
package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/skellner/flight-launcher/internal/model"
)

// workdir is the mount point of the base directory inside the container.
const workdir = "/app"

// RunOptions describes a containerized target invocation.
type RunOptions struct {
	// Image is the Python image to run, e.g. "python:3.12-slim".
	Image string

	// BaseDir is the host directory bind-mounted at the container
	// workdir. The target, its manifest siblings, and its data files
	// all live here.
	BaseDir string

	// Target is the target program file name, relative to BaseDir.
	Target string

	// Manifest is the dependency manifest file name, relative to BaseDir.
	// When non-empty, dependencies are installed inside the container
	// before the target starts. Empty means skip installation.
	Manifest string

	// Args are forwarded to the target verbatim.
	Args []string
}

// RunTarget runs the target program inside a container and blocks until
// it exits. The container is removed afterwards (--rm); only its labels
// distinguish it while it runs.
//
// Exit semantics mirror venv mode: nil on success, *model.TargetExitError
// on a non-zero target exit, *model.CLIError when the run cannot start.
// Docker's own failure codes (125-127: daemon error, not executable,
// not found) propagate the same way — the distinction is visible in the
// code itself.
func RunTarget(ctx context.Context, opts RunOptions) error {
	hostTarget := filepath.Join(opts.BaseDir, opts.Target)
	if _, err := os.Stat(hostTarget); err != nil {
		return model.WrapCLIError(
			model.ExitTargetNotFound,
			fmt.Sprintf("target program not found: %s", hostTarget),
			err,
		)
	}

	labels := BuildLabels(opts.BaseDir, opts.Target, opts.Image, time.Now())

	args := []string{
		"run", "--rm", "-i",
		"-v", opts.BaseDir + ":" + workdir,
		"-w", workdir,
	}
	args = append(args, LabelArgs(labels)...)
	args = append(args, opts.Image)
	args = append(args, containerCommand(opts)...)

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return &model.TargetExitError{Code: exitErr.ExitCode()}
		}
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"docker run failed",
			err,
		)
	}
	return nil
}

// containerCommand builds the command executed inside the container.
//
// Without a manifest the target runs directly. With one, a small sh
// wrapper installs dependencies first and then execs the target. The
// forwarded arguments are passed as positional parameters ("$0" is the
// target, "$@" the rest), so the shell never re-interprets them and
// argument fidelity is preserved exactly as in venv mode.
func containerCommand(opts RunOptions) []string {
	if opts.Manifest == "" {
		cmd := []string{"python", opts.Target}
		return append(cmd, opts.Args...)
	}

	script := "python -m pip install -q -r '" + opts.Manifest + "' && exec python \"$0\" \"$@\""
	cmd := []string{"sh", "-c", script, opts.Target}
	return append(cmd, opts.Args...)
}

// RunInfo describes one launcher-started container, reconstructed from
// its labels.
type RunInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the Docker-assigned container name, without the
	// API's leading slash.
	ContainerName string `json:"containerName"`

	// Image is the image the run was started from.
	Image string `json:"image"`

	// Target is the target program file name.
	Target string `json:"target"`

	// BaseDir is the host directory mounted into the container.
	BaseDir string `json:"baseDir"`

	// Status is the Docker container state (e.g. "running").
	Status string `json:"status"`

	// StartedAt is the run start time from the launcher label. Zero when
	// the label is missing or malformed.
	StartedAt time.Time `json:"startedAt,omitempty"`
}

// ListRuns queries the daemon for containers carrying the launcher's
// managed-by label. The filter runs server-side, so unrelated containers
// on the host are never transferred.
func ListRuns(ctx context.Context, cli *Client) ([]RunInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	runs := make([]RunInfo, 0, len(containers))
	for _, c := range containers {
		info := RunInfo{
			ContainerID: c.ID,
			Image:       c.Labels[LabelImage],
			Target:      c.Labels[LabelTarget],
			BaseDir:     c.Labels[LabelBaseDir],
			Status:      c.State,
		}
		if len(c.Names) > 0 {
			// The API prefixes names with "/".
			info.ContainerName = strings.TrimPrefix(c.Names[0], "/")
		}
		if ts, err := time.Parse(time.RFC3339, c.Labels[LabelStartedAt]); err == nil {
			info.StartedAt = ts
		}
		runs = append(runs, info)
	}
	return runs, nil
}
