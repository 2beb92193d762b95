// Package terraform owns the provisioning variable file and the
// init/apply/destroy lifecycle of the VM, with gcloud as the fallback
// source of truth when no local state exists.
package terraform

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mateo/cloud-agent/internal/config"
	"github.com/mateo/cloud-agent/internal/execx"
	"github.com/mateo/cloud-agent/internal/gcloud"
	"github.com/mateo/cloud-agent/internal/ipaddr"
	"github.com/mateo/cloud-agent/internal/ui"
)

// VMNotFoundError means neither terraform state nor the live inventory
// knows the VM.
type VMNotFoundError struct {
	Name string
}

func (e *VMNotFoundError) Error() string {
	return fmt.Sprintf("VM %q not found", e.Name)
}

// ProvisionError is a terraform failure qualified by lifecycle phase.
type ProvisionError struct {
	Phase string // "init", "apply", or "destroy"
	Err   error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("terraform %s failed: %v", e.Phase, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// IPDetector yields the caller's public address for the allow-list.
type IPDetector interface {
	PublicIPv4(ctx context.Context) (string, error)
}

// Driver runs terraform in a fixed working directory.
type Driver struct {
	cfg    config.Config
	dir    string
	runner execx.Runner
	gcp    gcloud.Client

	// IP is the public-address detector; tests replace it.
	IP IPDetector

	// BootSettle is how long to wait after apply for the instance's
	// startup script to finish.
	BootSettle time.Duration

	// Stdin supplies the terminate confirmation answer.
	Stdin io.Reader
}

func NewDriver(cfg config.Config, dir string, r execx.Runner, gcp gcloud.Client) *Driver {
	return &Driver{
		cfg:        cfg,
		dir:        dir,
		runner:     r,
		gcp:        gcp,
		IP:         ipaddr.NewDetector(),
		BootSettle: 90 * time.Second,
		Stdin:      os.Stdin,
	}
}

func (d *Driver) statePath() string {
	return filepath.Join(d.dir, "terraform.tfstate")
}

func (d *Driver) stateExists() bool {
	_, err := os.Stat(d.statePath())
	return err == nil
}

// VMExists prefers the recorded terraform output, falling back to the
// live inventory. It only errors on transport failures, never on a
// missing VM.
func (d *Driver) VMExists(ctx context.Context) (bool, error) {
	if d.stateExists() {
		out, err := d.runner.Output(ctx, d.dir, "terraform", "output", "-raw", "vm_name")
		if err == nil && strings.TrimSpace(out) == d.cfg.VMName {
			return true, nil
		}
	}
	return d.gcp.InstanceExists(ctx, d.cfg.VMName)
}

// VMIP resolves the VM's external address, preferring terraform state.
func (d *Driver) VMIP(ctx context.Context) (string, error) {
	if d.stateExists() {
		out, err := d.runner.Output(ctx, d.dir, "terraform", "output", "-raw", "cloud_agent_ip")
		if err == nil {
			if ip := strings.TrimSpace(out); ip != "" {
				return ip, nil
			}
		}
	}

	ip, err := d.gcp.InstanceIP(ctx, d.cfg.VMName, d.cfg.Zone)
	if err != nil || ip == "" {
		return "", &VMNotFoundError{Name: d.cfg.VMName}
	}
	return ip, nil
}

// Create provisions the VM. Unforced creation is a no-op when the VM
// already exists.
func (d *Driver) Create(ctx context.Context, force bool) error {
	if !force {
		exists, err := d.VMExists(ctx)
		if err != nil {
			return err
		}
		if exists {
			ui.Logf("✓ Cloud Agent VM already exists: %s", d.cfg.VMName)
			return nil
		}
	}

	ui.Header("🐕 CREATING CLOUD AGENT VM")

	if err := d.GenerateVars(ctx); err != nil {
		return err
	}

	ui.Logf("Initializing Terraform...")
	if err := d.runner.Run(ctx, d.dir, "terraform", "init", "-input=false"); err != nil {
		return &ProvisionError{Phase: "init", Err: err}
	}

	ui.Logf("Applying Terraform (creating %s VM)...", d.cfg.VMName)
	if err := d.runner.Run(ctx, d.dir, "terraform", "apply", "-auto-approve"); err != nil {
		return &ProvisionError{Phase: "apply", Err: err}
	}

	ip, err := d.VMIP(ctx)
	if err != nil {
		return err
	}
	ui.Successf("Cloud Agent VM created!")
	ui.Logf("   Name: %s", d.cfg.VMName)
	ui.Logf("   External IP: %s", ip)

	if d.BootSettle > 0 {
		ui.Logf("Waiting %s for VM to boot and run startup script...", d.BootSettle)
		time.Sleep(d.BootSettle)
	}
	return nil
}

// Apply re-applies terraform with freshly generated variables. It
// requires existing state; creation goes through Create.
func (d *Driver) Apply(ctx context.Context) error {
	ui.Logf("Re-applying terraform configuration...")

	if !d.stateExists() {
		return fmt.Errorf("no terraform state found. Create VM first with: ca <repo>")
	}

	if err := d.GenerateVars(ctx); err != nil {
		return err
	}

	ui.Logf("Applying Terraform...")
	if err := d.runner.Run(ctx, d.dir, "terraform", "apply", "-auto-approve"); err != nil {
		return &ProvisionError{Phase: "apply", Err: err}
	}

	ui.Successf("Terraform apply complete!")
	return nil
}

// Destroy tears the VM down after interactive confirmation. Declining
// is a no-op, not an error. Without terraform state the instance is
// deleted directly through gcloud, so VMs created out-of-band are still
// removable.
func (d *Driver) Destroy(ctx context.Context) error {
	ui.Warnf("Terminating VM and cleaning up resources...")

	fmt.Print("Are you sure? [y/N] ")
	answer, _ := bufio.NewReader(d.Stdin).ReadString('\n')
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		ui.Logf("Cancelled")
		return nil
	}

	if d.stateExists() {
		ui.Logf("Running terraform destroy...")
		if err := d.runner.Run(ctx, d.dir, "terraform", "destroy", "-auto-approve"); err != nil {
			return &ProvisionError{Phase: "destroy", Err: err}
		}
		ui.Successf("All resources destroyed")
		return nil
	}

	ui.Logf("No terraform state found, using gcloud to delete VM...")
	if err := d.gcp.Delete(ctx, d.cfg.VMName, d.cfg.Zone); err != nil {
		return err
	}
	ui.Successf("VM terminated")
	return nil
}
