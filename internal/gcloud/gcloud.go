// Package gcloud drives the Google Cloud CLI through the execx.Runner
// capability surface.
package gcloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/mateo/cloud-agent/internal/config"
	"github.com/mateo/cloud-agent/internal/execx"
)

// Client is the narrow slice of gcloud this tool needs.
type Client interface {
	// Project returns the active project from the local gcloud config.
	Project(ctx context.Context) (string, error)

	// List prints the cloud-agent instance inventory to the terminal.
	List(ctx context.Context) error

	Start(ctx context.Context, name, zone string) error
	Stop(ctx context.Context, name, zone string) error
	Delete(ctx context.Context, name, zone string) error

	// InstanceIP returns the external IP of a named instance, empty
	// when the instance has none.
	InstanceIP(ctx context.Context, name, zone string) (string, error)

	// InstanceExists queries the live inventory by name.
	InstanceExists(ctx context.Context, name string) (bool, error)
}

type client struct {
	runner execx.Runner
}

func NewClient(r execx.Runner) Client {
	return &client{runner: r}
}

func (c *client) Project(ctx context.Context) (string, error) {
	out, err := c.runner.Output(ctx, "", "gcloud", "config", "get-value", "project")
	if err != nil {
		return "", fmt.Errorf("%w: %v", config.ErrProjectNotConfigured, err)
	}
	project := strings.TrimSpace(out)
	if project == "" {
		return "", config.ErrProjectNotConfigured
	}
	return project, nil
}

func (c *client) List(ctx context.Context) error {
	return c.runner.Run(ctx, "", "gcloud",
		"compute", "instances", "list",
		"--filter=labels.purpose=cloud-agent",
		"--format=table(name,zone,status,labels.owner,labels.skip_deletion,networkInterfaces[0].accessConfigs[0].natIP:label=EXTERNAL_IP)",
	)
}

func (c *client) Start(ctx context.Context, name, zone string) error {
	return c.runner.Run(ctx, "", "gcloud",
		"compute", "instances", "start", name,
		"--zone="+zone,
	)
}

func (c *client) Stop(ctx context.Context, name, zone string) error {
	return c.runner.Run(ctx, "", "gcloud",
		"compute", "instances", "stop", name,
		"--zone="+zone,
	)
}

func (c *client) Delete(ctx context.Context, name, zone string) error {
	return c.runner.Run(ctx, "", "gcloud",
		"compute", "instances", "delete", name,
		"--zone="+zone,
		"--quiet",
	)
}

func (c *client) InstanceIP(ctx context.Context, name, zone string) (string, error) {
	out, err := c.runner.Output(ctx, "", "gcloud",
		"compute", "instances", "describe", name,
		"--zone="+zone,
		"--format=value(networkInterfaces[0].accessConfigs[0].natIP)",
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *client) InstanceExists(ctx context.Context, name string) (bool, error) {
	out, err := c.runner.Output(ctx, "", "gcloud",
		"compute", "instances", "list",
		"--filter=name="+name,
		"--format=value(name)",
	)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}
