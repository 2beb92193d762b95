// ca deploys repositories to a single-tenant cloud VM set up for AI
// coding agents, and manages that VM's lifecycle.
package main

import (
	"context"
	"os"

	"github.com/mateo/cloud-agent/internal/agent"
	"github.com/mateo/cloud-agent/internal/config"
	"github.com/mateo/cloud-agent/internal/deploy"
	"github.com/mateo/cloud-agent/internal/execx"
	"github.com/mateo/cloud-agent/internal/gcloud"
	"github.com/mateo/cloud-agent/internal/gitrepo"
	"github.com/mateo/cloud-agent/internal/sshx"
	"github.com/mateo/cloud-agent/internal/terraform"
	"github.com/mateo/cloud-agent/internal/ui"
	"github.com/spf13/cobra"
)

var flags struct {
	agent        string
	zone         string
	machineType  string
	clusterName  string
	sshKey       string
	githubToken  string
	skipDeletion string
	permissions  string
	additionalIP string
	username     string
	company      string
}

func main() {
	root := &cobra.Command{
		Use:   "ca [repo-url...]",
		Short: "Deploy repos to Cloud Agent VMs for AI coding agents",
		Long: "Cloud Agent creates and manages Google Cloud VMs configured for\n" +
			"running AI coding agents like Auggie, Claude Code, and Codex.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRepoArgs(args); err != nil {
				return err
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}

			repos := args
			if len(repos) == 0 {
				url, err := gitrepo.DetectOrigin(cmd.Context(), a.workdir, a.runner)
				if err != nil {
					return err
				}
				repos = []string{url}
			}
			return a.orch.FullDeploy(cmd.Context(), repos)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.agent, "agent", envOr("AGENT", ""), "Agent to use (auggie, claude, codex)")
	pf.StringVar(&flags.zone, "zone", envOr("ZONE", ""), "GCP zone")
	pf.StringVar(&flags.machineType, "machine-type", envOr("MACHINE_TYPE", ""), "VM machine type")
	pf.StringVar(&flags.clusterName, "cluster-name", envOr("CLUSTER_NAME", ""), "GKE cluster name (optional)")
	pf.StringVar(&flags.sshKey, "ssh-key", envOr("SSH_KEY", ""), "Path to SSH private key for GitHub")
	pf.StringVar(&flags.githubToken, "github-token", envOr("GITHUB_TOKEN", ""), "GitHub personal access token")
	pf.StringVar(&flags.skipDeletion, "skip-deletion", envOr("SKIP_DELETION", ""), "Skip deletion label (yes/no)")
	pf.StringVar(&flags.permissions, "permissions", envOr("PERMISSIONS", ""), "Comma-separated permissions for VM service account")
	pf.StringVar(&flags.additionalIP, "additional-ip", envOr("ADDITIONAL_IP", ""), "Additional IP address to whitelist for SSH")
	pf.StringVar(&flags.username, "username", envOr("USERNAME", ""), "Override the derived username/owner")
	pf.StringVar(&flags.company, "company", envOr("COMPANY", ""), "Company domain to append to username")

	root.AddCommand(
		listCmd(),
		startCmd(),
		stopCmd(),
		terminateCmd(),
		sshCmd(),
		scpCmd(),
		tfCmd(),
		createVMCmd(),
		deployCmd(),
	)

	if err := root.Execute(); err != nil {
		ui.Errorf("%v", err)
		os.Exit(1)
	}
}

// validateRepoArgs checks URLs given explicitly on the command line.
// Auto-detected origins bypass this: git may report forms (ssh://) that
// we never ask users to type, and the remote demonstrably exists.
func validateRepoArgs(args []string) error {
	for _, repo := range args {
		if err := gitrepo.ValidateURL(repo); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// app carries the wired components every command uses.
type app struct {
	cfg     config.Config
	runner  execx.Runner
	gcp     gcloud.Client
	tf      *terraform.Driver
	orch    *deploy.Orchestrator
	agent   agent.Agent
	workdir string
}

// buildApp resolves configuration, gates on agent prerequisites, and
// wires the drivers. It runs before every command so that no
// infrastructure is touched with a broken local setup.
func buildApp(ctx context.Context) (*app, error) {
	runner := execx.New()
	gcp := gcloud.NewClient(runner)

	defaults, err := config.LoadDefaults(config.DefaultsPath())
	if err != nil {
		ui.Warnf("%v", err)
	}
	ov := defaults.Merge(config.Overrides{
		Agent:        flags.agent,
		Zone:         flags.zone,
		MachineType:  flags.machineType,
		ClusterName:  flags.clusterName,
		SSHKey:       flags.sshKey,
		GitHubToken:  flags.githubToken,
		SkipDeletion: flags.skipDeletion,
		Permissions:  flags.permissions,
		AdditionalIP: flags.additionalIP,
		Username:     flags.username,
		Company:      flags.company,
	})

	cfg, err := config.Resolve(ctx, ov, gcp)
	if err != nil {
		return nil, err
	}

	selected, err := agent.Lookup(cfg.Agent)
	if err != nil {
		return nil, err
	}
	ui.Logf("Checking %s prerequisites...", selected.DisplayName())
	if err := agent.CheckPrerequisites(selected); err != nil {
		return nil, err
	}
	ui.Successf("%s CLI found and logged in", selected.DisplayName())

	workdir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	tf := terraform.NewDriver(cfg, workdir, runner, gcp)
	return &app{
		cfg:     cfg,
		runner:  runner,
		gcp:     gcp,
		tf:      tf,
		orch:    deploy.New(cfg, tf, runner),
		agent:   selected,
		workdir: workdir,
	}, nil
}

func (a *app) sshClient(ctx context.Context) (*sshx.Client, error) {
	ip, err := a.tf.VMIP(ctx)
	if err != nil {
		return nil, err
	}
	sh := sshx.NewClient(a.cfg.SSHUsername, ip, a.cfg.SSHKey, a.runner)
	sh.VMName = a.cfg.VMName
	return sh, nil
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cloud-agent VMs and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			ui.Logf("Listing cloud-agent VMs...")
			return a.gcp.List(cmd.Context())
		},
	}
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a stopped cloud-agent VM",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			ui.Logf("Starting VM: %s...", a.cfg.VMName)
			if err := a.gcp.Start(cmd.Context(), a.cfg.VMName, a.cfg.Zone); err != nil {
				return err
			}
			ui.Successf("VM started")
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop (but don't delete) the cloud-agent VM",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			ui.Logf("Stopping VM: %s...", a.cfg.VMName)
			if err := a.gcp.Stop(cmd.Context(), a.cfg.VMName, a.cfg.Zone); err != nil {
				return err
			}
			ui.Successf("VM stopped")
			return nil
		},
	}
}

func terminateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "terminate",
		Short: "Terminate (delete) the cloud-agent VM",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.tf.Destroy(cmd.Context())
		},
	}
}

func sshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh",
		Short: "SSH into the VM and attach to tmux session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			sh, err := a.sshClient(cmd.Context())
			if err != nil {
				return err
			}
			return sh.InteractiveSession(cmd.Context())
		},
	}
}

func scpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scp <src> <dst>",
		Short: "Copy files to/from VM using 'vm:' prefix for remote paths",
		Example: "  ca scp ./local-file.txt vm:/workspace/  # Upload to VM\n" +
			"  ca scp vm:/workspace/file.txt ./        # Download from VM",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			sh, err := a.sshClient(cmd.Context())
			if err != nil {
				return err
			}
			return sh.ScpWithPrefix(cmd.Context(), args[0], args[1])
		},
	}
	return cmd
}

func tfCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tf",
		Short: "Re-apply terraform with current variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.tf.Apply(cmd.Context())
		},
	}
}

func createVMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-vm",
		Short: "Create VM (force creation even if it exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.tf.Create(cmd.Context(), true)
		},
	}
}

func deployCmd() *cobra.Command {
	var skipCreds bool
	cmd := &cobra.Command{
		Use:   "deploy [repo-url...]",
		Short: "Deploy repos to existing VM (skip VM creation)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateRepoArgs(args); err != nil {
				return err
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			return a.orch.DeployRepos(cmd.Context(), args, skipCreds)
		},
	}
	cmd.Flags().BoolVar(&skipCreds, "skip-creds", false, "Skip credential transfer")
	return cmd
}
