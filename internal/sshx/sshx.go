// Package sshx wraps remote command execution and file transfer against
// the VM, driving the ssh and scp binaries through execx.Runner.
package sshx

import (
	"context"
	"fmt"
	"strings"

	"github.com/mateo/cloud-agent/internal/execx"
	"github.com/mateo/cloud-agent/internal/ui"
)

// RemotePrefix marks a path as living on the VM in ScpWithPrefix.
const RemotePrefix = "vm:"

// connection options shared by every ssh/scp invocation: accept the
// host key on first use, bound connection establishment.
var baseOpts = []string{
	"-o", "StrictHostKeyChecking=accept-new",
	"-o", "ConnectTimeout=10",
}

// KeyNotFoundError is raised before any network attempt when no private
// key is configured.
type KeyNotFoundError struct{}

func (e *KeyNotFoundError) Error() string {
	return "SSH key not found: no private key configured"
}

// RemoteError wraps a failed remote command with its diagnostics.
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string { return fmt.Sprintf("remote command failed: %v", e.Err) }
func (e *RemoteError) Unwrap() error { return e.Err }

// Client executes commands and transfers files on one target host.
type Client struct {
	user   string
	host   string
	key    string
	runner execx.Runner

	// VMName labels the host in interactive-session output.
	VMName string
}

func NewClient(user, host, key string, r execx.Runner) *Client {
	return &Client{user: user, host: host, key: key, runner: r}
}

func (c *Client) target() string {
	return c.user + "@" + c.host
}

func (c *Client) checkKey() error {
	if c.key == "" {
		return &KeyNotFoundError{}
	}
	return nil
}

func (c *Client) sshArgs(extra ...string) []string {
	args := append([]string{"-i", c.key}, baseOpts...)
	return append(args, extra...)
}

// Execute runs a command on the VM and returns its trimmed stdout.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	if err := c.checkKey(); err != nil {
		return "", err
	}
	out, err := c.runner.Output(ctx, "", "ssh", c.sshArgs(c.target(), command)...)
	if err != nil {
		return "", &RemoteError{Err: err}
	}
	return strings.TrimSpace(out), nil
}

// ExecuteStreaming runs a command on the VM with output going straight
// to the terminal.
func (c *Client) ExecuteStreaming(ctx context.Context, command string) error {
	if err := c.checkKey(); err != nil {
		return err
	}
	if err := c.runner.Run(ctx, "", "ssh", c.sshArgs(c.target(), command)...); err != nil {
		return &RemoteError{Err: err}
	}
	return nil
}

// CopyToVM transfers a single local file to the VM.
func (c *Client) CopyToVM(ctx context.Context, localPath, remotePath string) error {
	if err := c.checkKey(); err != nil {
		return err
	}
	if err := c.runner.Run(ctx, "", "scp", c.sshArgs(localPath, c.target()+":"+remotePath)...); err != nil {
		return &RemoteError{Err: err}
	}
	return nil
}

// CopyFromVM transfers a single file from the VM.
func (c *Client) CopyFromVM(ctx context.Context, remotePath, localPath string) error {
	if err := c.checkKey(); err != nil {
		return err
	}
	if err := c.runner.Run(ctx, "", "scp", c.sshArgs(c.target()+":"+remotePath, localPath)...); err != nil {
		return &RemoteError{Err: err}
	}
	return nil
}

// ScpWithPrefix copies recursively between paths where the literal
// "vm:" prefix denotes the remote side.
func (c *Client) ScpWithPrefix(ctx context.Context, src, dst string) error {
	if err := c.checkKey(); err != nil {
		return err
	}

	remote := c.target() + ":"
	src = strings.Replace(src, RemotePrefix, remote, 1)
	dst = strings.Replace(dst, RemotePrefix, remote, 1)

	ui.Logf("Copying files...")
	args := append([]string{"-i", c.key},
		"-o", "StrictHostKeyChecking=accept-new",
		"-r", src, dst)
	if err := c.runner.Run(ctx, "", "scp", args...); err != nil {
		return &RemoteError{Err: err}
	}
	ui.Successf("Copy complete")
	return nil
}

// InteractiveSession attaches the terminal to a tmux session on the VM,
// creating one when none exists.
func (c *Client) InteractiveSession(ctx context.Context) error {
	if err := c.checkKey(); err != nil {
		return err
	}

	if c.VMName != "" {
		ui.Logf("Connecting to %s (%s) as %s...", c.VMName, c.host, c.user)
	} else {
		ui.Logf("Connecting to %s as %s...", c.host, c.user)
	}
	ui.Logf("Using SSH key: %s", c.key)

	args := []string{
		"-i", c.key,
		"-o", "StrictHostKeyChecking=accept-new",
		c.target(),
		"-t",
		"tmux attach-session 2>/dev/null || tmux new-session",
	}
	if err := c.runner.Interactive(ctx, "ssh", args...); err != nil {
		return &RemoteError{Err: err}
	}
	return nil
}
