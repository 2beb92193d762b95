// Package gitrepo handles repository URL validation, name extraction,
// and origin auto-detection from the current work tree.
package gitrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/mateo/cloud-agent/internal/execx"
	"github.com/mateo/cloud-agent/internal/ui"
)

// InvalidURLError reports a repository URL this tool cannot deploy.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid repository URL: %s", e.URL)
}

// ValidateURL accepts exactly the SSH (git@) and HTTP(S) schemes.
func ValidateURL(url string) error {
	if strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "http://") {
		return nil
	}
	return &InvalidURLError{URL: url}
}

// RepoName extracts the short name from a repository URL: the last path
// segment with any .git suffix removed.
//
//	git@github.com:org/repo.git  -> repo
//	https://github.com/org/repo  -> repo
func RepoName(url string) (string, error) {
	idx := strings.LastIndex(url, "/")
	if idx < 0 {
		return "", &InvalidURLError{URL: url}
	}
	name := strings.TrimSuffix(url[idx+1:], ".git")
	if name == "" {
		return "", &InvalidURLError{URL: url}
	}
	return name, nil
}

// DetectOrigin returns the origin remote URL of the work tree containing
// dir. Used when no repository URL was supplied on the command line.
func DetectOrigin(ctx context.Context, dir string, r execx.Runner) (string, error) {
	if _, err := r.Output(ctx, dir, "git", "rev-parse", "--is-inside-work-tree"); err != nil {
		return "", fmt.Errorf("not in a git repository. Specify a repository URL or run from a git directory")
	}

	out, err := r.Output(ctx, dir, "git", "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("no 'origin' remote found in current git repository")
	}

	url := strings.TrimSpace(out)
	if url == "" {
		return "", fmt.Errorf("origin remote URL is empty")
	}

	ui.Logf("Auto-detected repo from current directory: %s", url)
	return url, nil
}
