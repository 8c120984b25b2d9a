package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const remoteName = "origin"

// PushOptions describes where a generated project gets pushed.
type PushOptions struct {
	CloneURL    string
	AccessToken string
	CommitMsg   string
	AuthorName  string
	AuthorEmail string
}

// InitRepo materializes the generated files into dir, initializes a git
// repository there and commits everything on a "main" branch. It returns the
// commit hash.
func InitRepo(dir string, files map[string]string) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("no files to export")
	}

	if err := writeFiles(dir, files); err != nil {
		return "", err
	}

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName("main"),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to init repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	if err := worktree.AddGlob("."); err != nil {
		return "", fmt.Errorf("failed to stage files: %w", err)
	}

	hash, err := worktree.Commit("Initial commit from Nexora", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Nexora",
			Email: "noreply@nexora.app",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	slog.Debug("Export repository initialized", "dir", dir, "files", len(files), "commit", hash.String()[:7])
	return hash.String(), nil
}

// Push adds the remote and pushes the local repository in dir. AccessToken is
// a short-lived installation token minted server-side.
func Push(ctx context.Context, dir string, opts PushOptions) error {
	if opts.CloneURL == "" {
		return fmt.Errorf("clone URL is required")
	}
	if opts.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: remoteName,
		URLs: []string{opts.CloneURL},
	})
	if err != nil && err != git.ErrRemoteExists {
		return fmt.Errorf("failed to add remote: %w", err)
	}

	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		Auth: &githttp.BasicAuth{
			Username: "x-access-token",
			Password: opts.AccessToken,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}

	slog.Info("Project pushed to GitHub", "remote", opts.CloneURL)
	return nil
}

// writeFiles lays the flat path -> content map out on disk under dir.
func writeFiles(dir string, files map[string]string) error {
	for path, content := range files {
		dest := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
