package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentity(t *testing.T) {
	assert.Equal(t, "jane_doe", NormalizeIdentity("Jane.Doe"))
	assert.Equal(t, "jane_doe", NormalizeIdentity("jane-doe"))
	assert.Equal(t, "jane_doe", NormalizeIdentity("JANE_DOE"))

	// Idempotent under re-normalization.
	once := NormalizeIdentity("Jane.Doe-Smith")
	assert.Equal(t, once, NormalizeIdentity(once))
}

func TestDeriveOwner(t *testing.T) {
	assert.Equal(t, "jane_doe", DeriveOwner("Jane.Doe", ""))
	assert.Equal(t, "jane_doe_acme_corp", DeriveOwner("jane-doe", "Acme-Corp"))
}

func TestDeriveVMNameAndSSHUsername(t *testing.T) {
	assert.Equal(t, "jane-doe-cloud-agent", DeriveVMName("jane_doe"))
	assert.Equal(t, "jane-doe", DeriveSSHUsername("jane_doe"))
}

func TestParsePermissions(t *testing.T) {
	assert.Nil(t, ParsePermissions(""))
	assert.Equal(t,
		[]string{"roles/storage.admin", "roles/container.developer"},
		ParsePermissions("roles/storage.admin, roles/container.developer"))
	assert.Equal(t, []string{"a"}, ParsePermissions("a,,  ,"))
}

func TestDetectSSHKeyIn(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, detectSSHKeyIn(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_rsa"), []byte("k"), 0600))
	assert.Equal(t, filepath.Join(dir, "id_rsa"), detectSSHKeyIn(dir))

	// Earlier candidates win.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cloud-auggie"), []byte("k"), 0600))
	assert.Equal(t, filepath.Join(dir, "cloud-auggie"), detectSSHKeyIn(dir))
}

type stubProjects struct {
	id  string
	err error
}

func (s stubProjects) Project(ctx context.Context) (string, error) {
	return s.id, s.err
}

func TestResolve(t *testing.T) {
	t.Setenv("USER", "Jane.Doe")

	cfg, err := Resolve(context.Background(), Overrides{
		SSHKey:      "/tmp/test-key",
		Permissions: "roles/storage.admin",
	}, stubProjects{id: "my-project"})
	require.NoError(t, err)

	assert.Equal(t, "my-project", cfg.ProjectID)
	assert.Equal(t, "jane_doe", cfg.Owner)
	assert.Equal(t, "jane-doe-cloud-agent", cfg.VMName)
	assert.Equal(t, "jane-doe", cfg.SSHUsername)
	assert.Equal(t, Region, cfg.Region)
	assert.Equal(t, DefaultZone, cfg.Zone)
	assert.Equal(t, DefaultMachineType, cfg.MachineType)
	assert.Equal(t, DefaultSkipDelete, cfg.SkipDeletion)
	assert.Equal(t, []string{"roles/storage.admin"}, cfg.Permissions)
	assert.Empty(t, cfg.ClusterZone, "cluster zone must stay empty without a cluster")
}

func TestResolveUsernameOverride(t *testing.T) {
	t.Setenv("USER", "someone-else")

	cfg, err := Resolve(context.Background(), Overrides{
		Username: "Jane.Doe",
		Company:  "Acme",
		SSHKey:   "/tmp/test-key",
	}, stubProjects{id: "p"})
	require.NoError(t, err)

	assert.Equal(t, "jane_doe_acme", cfg.Owner)
	assert.Equal(t, "jane-doe-acme-cloud-agent", cfg.VMName)
}

func TestResolveClusterZone(t *testing.T) {
	t.Setenv("USER", "jane")

	cfg, err := Resolve(context.Background(), Overrides{
		ClusterName: "dev-cluster",
		Zone:        "europe-west1-b",
		SSHKey:      "/tmp/test-key",
	}, stubProjects{id: "p"})
	require.NoError(t, err)

	assert.Equal(t, "europe-west1-b", cfg.ClusterZone)
}

func TestResolveProjectError(t *testing.T) {
	t.Setenv("USER", "jane")

	_, err := Resolve(context.Background(), Overrides{}, stubProjects{err: ErrProjectNotConfigured})
	require.ErrorIs(t, err, ErrProjectNotConfigured)
}

func TestResolveMissingUser(t *testing.T) {
	t.Setenv("USER", "")

	_, err := Resolve(context.Background(), Overrides{}, stubProjects{id: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USER")
}
