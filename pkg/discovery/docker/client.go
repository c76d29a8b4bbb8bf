// Package docker resolves a container name or ID to its root PID, so the
// pagemap walker (pkg/pagemap) can target a containerized workload without
// the operator having to look up the PID by hand (SPEC_FULL.md component
// R). This is additive to pagemap's own cmdline/comm-based PID resolution.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/client"
)

// Client wraps the Docker API client for container PID resolution.
type Client struct {
	cli *client.Client
}

// New creates a Docker client from the environment (DOCKER_HOST etc.).
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: creating client: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.cli == nil {
		return nil
	}
	return c.cli.Close()
}

// ContainerPID inspects nameOrID and returns its PID namespace root, the
// same root pkg/pagemap.ExpandDescendants uses to BFS outward to every
// process running inside the container.
func (c *Client) ContainerPID(ctx context.Context, nameOrID string) (int32, error) {
	info, err := c.cli.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return 0, fmt.Errorf("docker: inspecting %q: %w", nameOrID, err)
	}
	if info.State == nil || info.State.Pid == 0 {
		return 0, fmt.Errorf("docker: container %q has no running process", nameOrID)
	}
	return int32(info.State.Pid), nil
}
