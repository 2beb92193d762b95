package sshx

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateo/cloud-agent/internal/execx"
	"github.com/mateo/cloud-agent/internal/ui"
)

func newTestClient(fake *execx.Fake) *Client {
	return NewClient("jane-doe", "203.0.113.5", "/home/jane/.ssh/cloud-agent", fake)
}

func TestExecute(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		return "hello\n", nil
	}

	out, err := newTestClient(fake).Execute(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	require.Len(t, fake.Calls, 1)
	c := fake.Calls[0]
	assert.Equal(t, "ssh", c.Name)
	assert.Equal(t, []string{
		"-i", "/home/jane/.ssh/cloud-agent",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "ConnectTimeout=10",
		"jane-doe@203.0.113.5",
		"echo hello",
	}, c.Args)
}

func TestExecuteFailure(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		return "", errors.New("exit status 1\nstderr: permission denied")
	}

	_, err := newTestClient(fake).Execute(context.Background(), "ls")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Error(), "permission denied")
}

func TestMissingKeyFailsBeforeNetwork(t *testing.T) {
	fake := execx.NewFake()
	c := NewClient("jane-doe", "203.0.113.5", "", fake)
	ctx := context.Background()

	var keyErr *KeyNotFoundError
	_, err := c.Execute(ctx, "ls")
	require.ErrorAs(t, err, &keyErr)
	require.ErrorAs(t, c.ExecuteStreaming(ctx, "ls"), &keyErr)
	require.ErrorAs(t, c.CopyToVM(ctx, "/tmp/f", "~/f"), &keyErr)
	require.ErrorAs(t, c.CopyFromVM(ctx, "~/f", "/tmp/f"), &keyErr)
	require.ErrorAs(t, c.ScpWithPrefix(ctx, "vm:/a", "./"), &keyErr)
	require.ErrorAs(t, c.InteractiveSession(ctx), &keyErr)

	assert.Empty(t, fake.Calls, "no subprocess may be spawned without a key")
}

func TestCopyToVM(t *testing.T) {
	fake := execx.NewFake()

	err := newTestClient(fake).CopyToVM(context.Background(), "/tmp/file", "~/file")
	require.NoError(t, err)

	require.Len(t, fake.Calls, 1)
	c := fake.Calls[0]
	assert.Equal(t, "scp", c.Name)
	assert.Contains(t, c.Args, "/tmp/file")
	assert.Contains(t, c.Args, "jane-doe@203.0.113.5:~/file")
}

func TestScpWithPrefix(t *testing.T) {
	fake := execx.NewFake()

	err := newTestClient(fake).ScpWithPrefix(context.Background(), "vm:/workspace/out", "./")
	require.NoError(t, err)

	require.Len(t, fake.Calls, 1)
	c := fake.Calls[0]
	assert.Equal(t, "scp", c.Name)
	assert.Contains(t, c.Args, "-r")
	assert.Contains(t, c.Args, "jane-doe@203.0.113.5:/workspace/out")
	assert.Contains(t, c.Args, "./")
}

func TestInteractiveSession(t *testing.T) {
	fake := execx.NewFake()

	err := newTestClient(fake).InteractiveSession(context.Background())
	require.NoError(t, err)

	require.Len(t, fake.Calls, 1)
	c := fake.Calls[0]
	assert.Equal(t, "ssh", c.Name)
	assert.Contains(t, c.Args, "-t")
	assert.Contains(t, c.Args, "tmux attach-session 2>/dev/null || tmux new-session")
}

func TestInteractiveSessionNamesVM(t *testing.T) {
	var buf bytes.Buffer
	ui.SetOutput(&buf, &buf)
	defer ui.SetOutput(os.Stdout, os.Stderr)

	fake := execx.NewFake()
	sh := newTestClient(fake)
	sh.VMName = "jane-doe-cloud-agent"

	require.NoError(t, sh.InteractiveSession(context.Background()))
	assert.Contains(t, buf.String(),
		"Connecting to jane-doe-cloud-agent (203.0.113.5) as jane-doe...")
}
