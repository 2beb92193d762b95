// Package agent is the closed catalog of supported coding-agent
// integrations. Each agent knows how to detect its local install and
// login state and where its credential file lives locally and on the VM.
package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mateo/cloud-agent/internal/execx"
)

// Agent describes one coding-agent integration.
type Agent interface {
	// Name is the registry identifier used for lookup.
	Name() string
	DisplayName() string
	Command() string
	InstallCommand() string

	// CheckLocal reports whether the agent CLI is on PATH.
	CheckLocal() bool

	// CheckLoggedIn reports whether the agent's credential file exists
	// under the home directory.
	CheckLoggedIn() bool

	LoginInstructions() string

	// CredentialsPath is the local credential file; ok is false when
	// the home directory cannot be resolved.
	CredentialsPath() (path string, ok bool)

	// RemoteCredentialsPath is the conventional destination on the VM.
	RemoteCredentialsPath() string

	// RemoteStateDir is the directory the agent CLI expects on the VM.
	// It is created during credential transfer; for some agents it is
	// not the credential file's parent.
	RemoteStateDir() string
}

// The catalog is compile-time fixed: adding an agent means adding a
// struct here, not loading a plugin.
var catalog = []Agent{Auggie{}, Claude{}, Codex{}}

// NotFoundError reports an unrecognized agent identifier together with
// the valid set.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found. Available agents: %s", e.Name, strings.Join(e.Available, ", "))
}

// NotLoggedInError reports a failed prerequisite with remediation text.
type NotLoggedInError struct {
	Agent  string
	Remedy string
}

func (e *NotLoggedInError) Error() string {
	return fmt.Sprintf("agent %q is not logged in. %s", e.Agent, e.Remedy)
}

// Lookup resolves an identifier to its agent.
func Lookup(name string) (Agent, error) {
	for _, a := range catalog {
		if a.Name() == name {
			return a, nil
		}
	}
	return nil, &NotFoundError{Name: name, Available: Names()}
}

// Names enumerates all supported identifiers in catalog order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for _, a := range catalog {
		names = append(names, a.Name())
	}
	return names
}

// All returns the full catalog, used for the best-effort credential
// sweep during deployment.
func All() []Agent {
	return catalog
}

// CheckPrerequisites gates every run: the agent CLI must be installed
// and logged in before any infrastructure is touched. The checks
// short-circuit in that order.
func CheckPrerequisites(a Agent) error {
	if !a.CheckLocal() {
		return &NotLoggedInError{
			Agent:  a.DisplayName(),
			Remedy: fmt.Sprintf("Install it with: %s", a.InstallCommand()),
		}
	}
	if !a.CheckLoggedIn() {
		return &NotLoggedInError{
			Agent:  a.DisplayName(),
			Remedy: a.LoginInstructions(),
		}
	}
	return nil
}

func commandExists(name string) bool {
	return execx.LookPath(name)
}

func homeFile(parts ...string) (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(append([]string{home}, parts...)...), true
}

func homeFileExists(parts ...string) bool {
	path, ok := homeFile(parts...)
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
