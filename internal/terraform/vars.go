package terraform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mateo/cloud-agent/internal/config"
	"github.com/mateo/cloud-agent/internal/ipaddr"
	"github.com/mateo/cloud-agent/internal/ui"
)

// GenerateVars writes terraform.tfvars in the working directory from
// the resolved configuration plus the detected allow-list and SSH
// hardening material.
func (d *Driver) GenerateVars(ctx context.Context) error {
	ui.Logf("Generating terraform.tfvars...")

	allowedIPs, err := d.allowedIPs(ctx)
	if err != nil {
		return err
	}

	sshUser, sshPublicKey := d.sshHardening()

	content := renderVars(d.cfg, allowedIPs, sshUser, sshPublicKey)
	path := filepath.Join(d.dir, "terraform.tfvars")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (d *Driver) allowedIPs(ctx context.Context) ([]string, error) {
	ui.Logf("Detecting your public IP addresses...")

	own, err := d.IP.PublicIPv4(ctx)
	if err != nil {
		return nil, err
	}
	ips := []string{own}

	if d.cfg.AdditionalIP != "" {
		extra := ipaddr.NormalizeCIDR(d.cfg.AdditionalIP)
		ips = append(ips, extra)
		ui.Logf("✓ Additional whitelisted IP: %s", extra)
	}

	ui.Logf("✓ Firewall will allow SSH from: %s", strings.Join(ips, ", "))
	return ips, nil
}

// sshHardening reads the public key beside the configured private key.
// Without one the hardening fields stay empty and SSH is not pinned to
// a specific user.
func (d *Driver) sshHardening() (user, publicKey string) {
	if d.cfg.SSHKey != "" {
		pubPath := d.cfg.SSHKey + ".pub"
		if data, err := os.ReadFile(pubPath); err == nil {
			ui.Logf("✓ SSH will be secured for user: %s", d.cfg.SSHUsername)
			ui.Logf("✓ Using public key from: %s", pubPath)
			return d.cfg.SSHUsername, strings.TrimSpace(string(data))
		}
	}

	ui.Warnf("No SSH public key found. SSH will not be hardened to a specific user.")
	return "", ""
}

func renderVars(cfg config.Config, allowedIPs []string, sshUser, sshPublicKey string) string {
	var b strings.Builder
	writeVar := func(key, value string) {
		fmt.Fprintf(&b, "%-14s = %q\n", key, value)
	}
	writeList := func(key string, values []string) {
		fmt.Fprintf(&b, "%-14s = %s\n", key, renderList(values))
	}

	writeVar("project_id", cfg.ProjectID)
	writeVar("region", cfg.Region)
	writeVar("zone", cfg.Zone)
	writeVar("machine_type", cfg.MachineType)
	writeVar("cluster_name", cfg.ClusterName)
	writeVar("cluster_zone", cfg.ClusterZone)
	writeVar("vm_name", cfg.VMName)
	writeVar("owner", cfg.Owner)
	writeVar("skip_deletion", cfg.SkipDeletion)
	writeList("permissions", cfg.Permissions)
	writeList("allowed_ips", allowedIPs)
	writeVar("ssh_username", sshUser)
	writeVar("ssh_public_key", sshPublicKey)

	return b.String()
}

// renderList formats a terraform list of strings: ["a", "b"].
func renderList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
