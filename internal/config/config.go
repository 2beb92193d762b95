// Package config resolves the per-invocation configuration record from
// flags, environment, and local discovery. The resulting Config is
// immutable after Resolve.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Region is fixed; only the zone varies per invocation.
const Region = "us-central1"

const (
	DefaultAgent       = "auggie"
	DefaultZone        = "us-central1-a"
	DefaultMachineType = "n2-standard-4"
	DefaultSkipDelete  = "yes"
)

// ErrProjectNotConfigured means the cloud CLI has no active project.
var ErrProjectNotConfigured = errors.New("GCP project not configured. Run: gcloud config set project PROJECT_ID")

// Config is the fully resolved invocation configuration.
type Config struct {
	Agent        string
	ProjectID    string
	Region       string
	Zone         string
	MachineType  string
	VMName       string
	Owner        string
	SSHUsername  string
	SkipDeletion string
	ClusterName  string
	ClusterZone  string
	SSHKey       string
	GitHubToken  string
	Permissions  []string
	AdditionalIP string
	Company      string
}

// Overrides carries the user-supplied values before resolution. Empty
// fields fall back to discovery or defaults.
type Overrides struct {
	Agent        string
	Zone         string
	MachineType  string
	ClusterName  string
	SSHKey       string
	GitHubToken  string
	SkipDeletion string
	Permissions  string
	AdditionalIP string
	Username     string
	Company      string
}

// ProjectSource answers the active cloud project query. The gcloud
// client satisfies it; tests supply a stub.
type ProjectSource interface {
	Project(ctx context.Context) (string, error)
}

// Resolve builds a Config from overrides plus local discovery.
func Resolve(ctx context.Context, ov Overrides, projects ProjectSource) (Config, error) {
	projectID, err := projects.Project(ctx)
	if err != nil {
		return Config{}, err
	}

	owner, err := resolveOwner(ov.Username, ov.Company)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Agent:        valueOr(ov.Agent, DefaultAgent),
		ProjectID:    projectID,
		Region:       Region,
		Zone:         valueOr(ov.Zone, DefaultZone),
		MachineType:  valueOr(ov.MachineType, DefaultMachineType),
		VMName:       DeriveVMName(owner),
		Owner:        owner,
		SSHUsername:  DeriveSSHUsername(owner),
		SkipDeletion: valueOr(ov.SkipDeletion, DefaultSkipDelete),
		ClusterName:  ov.ClusterName,
		SSHKey:       ov.SSHKey,
		GitHubToken:  ov.GitHubToken,
		Permissions:  ParsePermissions(ov.Permissions),
		AdditionalIP: ov.AdditionalIP,
		Company:      ov.Company,
	}

	// The provisioning variables only need a cluster zone when a
	// cluster is actually configured.
	if cfg.ClusterName != "" {
		cfg.ClusterZone = cfg.Zone
	}

	if cfg.SSHKey == "" {
		cfg.SSHKey = DetectSSHKey()
	}

	return cfg, nil
}

func resolveOwner(username, company string) (string, error) {
	base := username
	if base == "" {
		base = os.Getenv("USER")
	}
	if base == "" {
		return "", fmt.Errorf("USER environment variable not set")
	}
	return DeriveOwner(base, company), nil
}

// NormalizeIdentity folds an identity to the owner alphabet: dots and
// dashes become underscores, everything lowercased. It is idempotent.
func NormalizeIdentity(s string) string {
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ToLower(s)
}

// DeriveOwner combines a base identity with an optional company suffix,
// both normalized.
func DeriveOwner(base, company string) string {
	owner := NormalizeIdentity(base)
	if company != "" {
		owner = owner + "_" + NormalizeIdentity(company)
	}
	return owner
}

// DeriveVMName maps an owner to its VM name.
func DeriveVMName(owner string) string {
	return strings.ReplaceAll(owner, "_", "-") + "-cloud-agent"
}

// DeriveSSHUsername maps an owner to the VM login user.
func DeriveSSHUsername(owner string) string {
	return strings.ReplaceAll(owner, "_", "-")
}

// ParsePermissions splits a comma-separated permission list, trimming
// whitespace and dropping empty entries.
func ParsePermissions(s string) []string {
	if s == "" {
		return nil
	}
	var perms []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

// sshKeyCandidates is the probe order for conventional key names.
var sshKeyCandidates = []string{"cloud-auggie", "cloud-agent", "id_ed25519", "id_rsa"}

// DetectSSHKey probes ~/.ssh for a conventional private key and returns
// its path, or empty when none is found.
func DetectSSHKey() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return detectSSHKeyIn(filepath.Join(home, ".ssh"))
}

func detectSSHKeyIn(dir string) string {
	for _, name := range sshKeyCandidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func valueOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
