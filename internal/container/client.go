// Package container implements the optional containerized run mode.
//
// Instead of a host virtual environment, the target program runs inside a
// Python image with the base directory bind-mounted. The Docker SDK is
// used for daemon discovery, health checks, and listing containers the
// launcher started; the actual run goes through the docker CLI so stdio
// passthrough and interactive TTY behavior match the venv mode exactly.
package container

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/skellner/flight-launcher/internal/model"
)

// pingTimeout bounds the daemon health check. Docker Desktop on macOS can
// take a few seconds to answer when waking up; anything beyond this means
// the daemon is effectively unavailable.
const pingTimeout = 5 * time.Second

// Client wraps the Docker SDK client with launcher-specific socket
// detection. Always Close() the client when done:
//
//	c, err := container.NewClient()
//	if err != nil { /* Docker unavailable */ }
//	defer c.Close()
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client, honoring DOCKER_HOST when set and
// falling back to platform-default socket locations otherwise.
//
// Returns a model.CLIError with ExitDockerNotRunning when no socket can
// be found or the client cannot be constructed.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectHost()
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitDockerNotRunning,
				"Docker socket not found",
				err,
			)
		}
		host = detected
	}

	// API version negotiation keeps the client compatible with whatever
	// daemon version the host runs.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}

	return &Client{inner: c}, nil
}

// detectHost probes the default Docker endpoints for the current platform.
// Existence of the socket file is checked, not daemon liveness — Ping
// covers the latter.
func detectHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return probeUnixSockets([]string{"/var/run/docker.sock"})

	case "darwin":
		// Newer Docker Desktop versions place the socket under the user's
		// home directory and may not create the /var/run symlink.
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return probeUnixSockets(paths)

	case "windows":
		// Docker on Windows listens on a named pipe. Pipes cannot be
		// stat'ed, so liveness is left entirely to Ping.
		return `npipe:////./pipe/docker_engine`, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// probeUnixSockets returns the Docker host URI for the first socket path
// that exists, in the order given.
func probeUnixSockets(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v — is Docker running?", paths)
}

// Ping verifies the daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases the client's underlying connection. Safe to call more
// than once.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for API calls not wrapped here.
func (c *Client) Inner() *client.Client {
	return c.inner
}
