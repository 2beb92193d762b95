package gcloud

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateo/cloud-agent/internal/config"
	"github.com/mateo/cloud-agent/internal/execx"
)

func TestProject(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		return "my-project\n", nil
	}

	project, err := NewClient(fake).Project(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "my-project", project)

	require.Len(t, fake.Calls, 1)
	assert.Equal(t, "gcloud config get-value project", fake.Calls[0].Line())
}

func TestProjectNotConfigured(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		return "\n", nil
	}

	_, err := NewClient(fake).Project(context.Background())
	require.ErrorIs(t, err, config.ErrProjectNotConfigured)
}

func TestProjectCommandFailure(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		return "", errors.New("gcloud not installed")
	}

	_, err := NewClient(fake).Project(context.Background())
	require.ErrorIs(t, err, config.ErrProjectNotConfigured)
}

func TestInstanceExists(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		assert.Contains(t, c.Args, "--filter=name=jane-doe-cloud-agent")
		return "jane-doe-cloud-agent\n", nil
	}

	exists, err := NewClient(fake).InstanceExists(context.Background(), "jane-doe-cloud-agent")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInstanceExistsNot(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		return "\n", nil
	}

	exists, err := NewClient(fake).InstanceExists(context.Background(), "jane-doe-cloud-agent")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLifecycleCommands(t *testing.T) {
	fake := execx.NewFake()
	c := NewClient(fake)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx, "vm", "us-central1-a"))
	require.NoError(t, c.Stop(ctx, "vm", "us-central1-a"))
	require.NoError(t, c.Delete(ctx, "vm", "us-central1-a"))

	require.Len(t, fake.Calls, 3)
	assert.Equal(t, "gcloud compute instances start vm --zone=us-central1-a", fake.Calls[0].Line())
	assert.Equal(t, "gcloud compute instances stop vm --zone=us-central1-a", fake.Calls[1].Line())
	assert.Equal(t, "gcloud compute instances delete vm --zone=us-central1-a --quiet", fake.Calls[2].Line())
}

func TestInstanceIP(t *testing.T) {
	fake := execx.NewFake()
	fake.OutputFn = func(c execx.Call) (string, error) {
		if !strings.Contains(c.Line(), "describe") {
			return "", errors.New("unexpected command")
		}
		return "203.0.113.5\n", nil
	}

	ip, err := NewClient(fake).InstanceIP(context.Background(), "vm", "us-central1-a")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5", ip)
}
