// Package deploy is the top-level deployment workflow: gate on agent
// prerequisites, ensure the VM, transfer credentials, clone
// repositories, and report.
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mateo/cloud-agent/internal/agent"
	"github.com/mateo/cloud-agent/internal/config"
	"github.com/mateo/cloud-agent/internal/execx"
	"github.com/mateo/cloud-agent/internal/gitrepo"
	"github.com/mateo/cloud-agent/internal/sshx"
	"github.com/mateo/cloud-agent/internal/terraform"
	"github.com/mateo/cloud-agent/internal/ui"
)

// Orchestrator runs one deployment against one VM.
type Orchestrator struct {
	cfg    config.Config
	tf     *terraform.Driver
	runner execx.Runner

	// agents is the full catalog: every locally present agent's
	// credentials are shipped, not just the selected one, so the VM can
	// switch agents without a redeploy.
	agents []agent.Agent
}

func New(cfg config.Config, tf *terraform.Driver, r execx.Runner) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		tf:     tf,
		runner: r,
		agents: agent.All(),
	}
}

// FullDeploy ensures the VM exists, creating it when absent, then
// deploys the repositories onto it.
func (o *Orchestrator) FullDeploy(ctx context.Context, repos []string) error {
	ui.Header("🐕 CLOUD AGENT DEPLOYMENT")
	ui.Logf("VM name: %s", o.cfg.VMName)
	ui.Logf("Owner: %s", o.cfg.Owner)

	exists, err := o.tf.VMExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		ui.Logf("✓ Cloud Agent VM already exists: %s", o.cfg.VMName)
	} else if err := o.tf.Create(ctx, false); err != nil {
		return err
	}

	return o.DeployRepos(ctx, repos, false)
}

// DeployRepos deploys onto an existing VM; it never creates one. URLs
// are taken as given: explicit arguments are validated at the CLI, and
// auto-detected origins are whatever git reports.
func (o *Orchestrator) DeployRepos(ctx context.Context, repos []string, skipCreds bool) error {
	exists, err := o.tf.VMExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return &terraform.VMNotFoundError{Name: o.cfg.VMName}
	}

	ip, err := o.tf.VMIP(ctx)
	if err != nil {
		return err
	}
	sh := sshx.NewClient(o.cfg.SSHUsername, ip, o.cfg.SSHKey, o.runner)
	sh.VMName = o.cfg.VMName

	if !skipCreds {
		if err := o.transferCredentials(ctx, sh); err != nil {
			return err
		}
	}

	if len(repos) > 0 {
		if err := o.cloneRepos(ctx, sh, repos); err != nil {
			return err
		}
	}

	return o.report(ctx, sh)
}

// transferCredentials configures git access on the VM and ships every
// locally present agent's credential file.
func (o *Orchestrator) transferCredentials(ctx context.Context, sh *sshx.Client) error {
	ui.Logf("Configuring credentials on VM...")

	if _, err := sh.Execute(ctx, "mkdir -p ~/.ssh && chmod 700 ~/.ssh"); err != nil {
		return err
	}

	switch {
	case o.cfg.SSHKey != "":
		ui.Logf("Transferring GitHub SSH key...")

		if err := sh.CopyToVM(ctx, o.cfg.SSHKey, "~/.ssh/id_ed25519"); err != nil {
			return err
		}
		if pub := o.cfg.SSHKey + ".pub"; fileExists(pub) {
			if err := sh.CopyToVM(ctx, pub, "~/.ssh/id_ed25519.pub"); err != nil {
				return err
			}
		}

		_, err := sh.Execute(ctx,
			"chmod 600 ~/.ssh/id_ed25519 && "+
				"chmod 644 ~/.ssh/id_ed25519.pub 2>/dev/null || true && "+
				"ssh-keyscan github.com >> ~/.ssh/known_hosts 2>/dev/null && "+
				"git config --global user.email 'cloud-agent@localhost' && "+
				"git config --global user.name 'Cloud Agent'")
		if err != nil {
			return err
		}
		ui.Successf("GitHub SSH key transferred")

	case o.cfg.GitHubToken != "":
		ui.Logf("Transferring GitHub credentials (PAT)...")

		_, err := sh.Execute(ctx, fmt.Sprintf(
			"git config --global credential.helper store && "+
				"echo 'https://oauth2:%s@github.com' > ~/.git-credentials && "+
				"chmod 600 ~/.git-credentials && "+
				"git config --global user.email 'cloud-agent@localhost' && "+
				"git config --global user.name 'Cloud Agent'",
			o.cfg.GitHubToken))
		if err != nil {
			return err
		}
		ui.Successf("GitHub PAT transferred")
	}

	o.transferAgentCredentials(ctx, sh)
	return nil
}

// transferAgentCredentials is best-effort per agent: one missing or
// failing credential file does not block the others.
func (o *Orchestrator) transferAgentCredentials(ctx context.Context, sh *sshx.Client) {
	ui.Logf("Transferring AI agent credentials...")

	for _, a := range o.agents {
		local, ok := a.CredentialsPath()
		if !ok || !fileExists(local) {
			continue
		}

		ui.Logf("  Transferring %s credentials...", a.DisplayName())
		if err := transferOne(ctx, sh, a, local); err != nil {
			ui.Warnf("  %s credential transfer failed: %v", a.DisplayName(), err)
			continue
		}
		ui.Logf("  ✅ %s credentials transferred", a.DisplayName())
	}
}

// transferOne ships one credential file through a local staging copy
// and a remote temp name, then moves it into place with tight
// permissions.
func transferOne(ctx context.Context, sh *sshx.Client, a agent.Agent, local string) error {
	staged, err := stageCopy(local)
	if err != nil {
		return err
	}
	defer os.Remove(staged)

	remoteTmp := fmt.Sprintf("~/%s-credentials-temp", a.Name())
	if err := sh.CopyToVM(ctx, staged, remoteTmp); err != nil {
		return err
	}

	remote := a.RemoteCredentialsPath()
	_, err = sh.Execute(ctx, fmt.Sprintf(
		"mkdir -p %s && mv %s %s && chmod 600 %s",
		a.RemoteStateDir(), remoteTmp, remote, remote))
	return err
}

func stageCopy(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	tmp, err := os.CreateTemp("", "cloud-agent-cred-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// cloneRepos clones each repository into /workspace, pulling instead
// when the checkout already exists.
func (o *Orchestrator) cloneRepos(ctx context.Context, sh *sshx.Client, repos []string) error {
	ui.Logf("Cloning repositories to VM...")

	// Best effort; the workspace may already be writable.
	sh.Execute(ctx, "sudo chmod 777 /workspace 2>/dev/null || true")

	for _, repo := range repos {
		name, err := gitrepo.RepoName(repo)
		if err != nil {
			return err
		}
		ui.Logf("  Cloning %s...", name)

		if _, err := sh.Execute(ctx, cloneOrPullCommand(name, repo)); err != nil {
			return fmt.Errorf("git operation failed for %s: %w", name, err)
		}
	}

	ui.Successf("All repositories cloned")
	return nil
}

// cloneOrPullCommand is idempotent: an existing checkout is pulled, a
// missing one is cloned.
func cloneOrPullCommand(name, url string) string {
	return fmt.Sprintf(
		"cd /workspace && "+
			"if [ -d '%s' ]; then "+
			"echo '  ⚠️  %s already exists, pulling latest...' && "+
			"cd '%s' && git pull; "+
			"else "+
			"git clone '%s' '%s' && "+
			"echo '  ✅ Cloned %s'; "+
			"fi",
		name, name, name, url, name, name)
}

func (o *Orchestrator) report(ctx context.Context, sh *sshx.Client) error {
	ui.Logf("Workspace contents:")
	if out, err := sh.Execute(ctx, "ls -la /workspace/"); err == nil {
		ui.Print(out)
	}

	ip, err := o.tf.VMIP(ctx)
	if err != nil {
		return err
	}

	ui.Header("🐕 CLOUD AGENT READY!")
	ui.Print("")
	ui.Print("Connect to VM (with tmux):")
	ui.Print("  ca ssh")
	ui.Print("")
	ui.Print("Or manually SSH:")
	ui.Print(fmt.Sprintf("  ssh -i %s %s@%s", o.cfg.SSHKey, o.cfg.SSHUsername, ip))
	ui.Print("")
	ui.Print("Start working:")
	ui.Print("  cd /workspace/<repo-name>")
	ui.Print("  " + o.cfg.Agent)
	ui.Print("")
	ui.Print("Agent can commit and push:")
	ui.Print("  git checkout -b feature/my-changes")
	ui.Print("  git add . && git commit -m 'Changes from cloud-agent'")
	ui.Print("  git push -u origin feature/my-changes")
	ui.Print("")
	ui.Print("VM management:")
	ui.Print("  ca list       # List VMs")
	ui.Print("  ca stop       # Stop VM")
	ui.Print("  ca start      # Start VM")
	ui.Print("  ca terminate  # Delete VM")

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
