// Package compose wraps the docker compose CLI for the handful of operations
// the provisioner needs: bringing services up and executing commands inside
// a running service container.
package compose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/stackup-cli/stackup/internal/config"
)

// runCommand executes a docker CLI invocation in dir and returns its error.
// It is a struct field so tests can record invocations without a docker
// daemon.
type runCommand func(ctx context.Context, dir string, args ...string) error

// Client shells out to `docker compose` for a single compose project.
type Client struct {
	file    string
	project string
	dir     string
	run     runCommand
}

// NewClient constructs a Client rooted at dir. The compose file path is
// resolved relative to dir when not absolute.
func NewClient(cfg config.ComposeConfig, dir string) *Client {
	return &Client{
		file:    cfg.File,
		project: cfg.Project,
		dir:     dir,
		run:     realRun,
	}
}

// Up ensures the named services are running (`docker compose up -d`). It is
// idempotent: already-running services are left alone by compose itself.
func (c *Client) Up(ctx context.Context, services ...string) error {
	args := append(c.baseArgs(), "up", "-d")
	args = append(args, services...)

	if err := c.run(ctx, c.dir, args...); err != nil {
		return fmt.Errorf("compose up %s: %w", strings.Join(services, " "), err)
	}
	return nil
}

// Exec runs command inside the named service's container as user
// (`docker compose exec -T -u user service command...`). The command's exit
// code is the stage outcome; output streams to the provisioner's stdio.
func (c *Client) Exec(ctx context.Context, service, user string, command ...string) error {
	args := append(c.baseArgs(), "exec", "-T")
	if user != "" {
		args = append(args, "-u", user)
	}
	args = append(args, service)
	args = append(args, command...)

	if err := c.run(ctx, c.dir, args...); err != nil {
		return fmt.Errorf("compose exec %s %s: %w", service, strings.Join(command, " "), err)
	}
	return nil
}

func (c *Client) baseArgs() []string {
	args := []string{"compose"}
	if c.file != "" {
		args = append(args, "-f", c.file)
	}
	if c.project != "" {
		args = append(args, "-p", c.project)
	}
	return args
}

// realRun invokes the docker binary with stdio passed through.
func realRun(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
