package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRepo represents a Git repository for testing purposes.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new Git repository in the specified directory using 'git init'.
func NewGitRepo(dir string) (*GitRepo, error) {
	repo := &GitRepo{Dir: dir}

	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w, output: %s", err, out)
	}

	// Configure Git user (required for commits)
	for _, kv := range [][2]string{
		{"user.name", "Test User"},
		{"user.email", "test@example.com"},
		{"commit.gpgsign", "false"},
		{"core.fileMode", "false"},
	} {
		if err := repo.RunGitCommand("config", kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *GitRepo) command(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	// Avoid reading global git config so tests behave the same everywhere
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_EDITOR=true")
	return cmd
}

// RunGitCommand executes a git command and returns an error if it fails.
func (r *GitRepo) RunGitCommand(args ...string) error {
	if out, err := r.command(args...).CombinedOutput(); err != nil {
		return fmt.Errorf("git %s failed: %w, output: %s", strings.Join(args, " "), err, out)
	}
	return nil
}

// RunGitCommandAndGetOutput executes a git command and returns its trimmed output.
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	output, err := r.command(args...).Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// WriteFile writes a file relative to the repository root and stages it.
func (r *GitRepo) WriteFile(name, content string) error {
	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return r.RunGitCommand("add", "--", name)
}

// ReadFile returns the working tree content of a file.
func (r *GitRepo) ReadFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(r.Dir, name))
	return string(data), err
}

// Commit writes the given files and commits them, returning the new commit SHA.
func (r *GitRepo) Commit(message string, files map[string]string) (string, error) {
	for name, content := range files {
		if err := r.WriteFile(name, content); err != nil {
			return "", err
		}
	}
	if err := r.RunGitCommand("commit", "--allow-empty", "-m", message); err != nil {
		return "", err
	}
	return r.GetRevision("HEAD")
}

// MoveAndCommit renames a file and commits the rename, returning the new commit SHA.
func (r *GitRepo) MoveAndCommit(message, from, to string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(filepath.Join(r.Dir, to)), 0o750); err != nil {
		return "", err
	}
	if err := r.RunGitCommand("mv", from, to); err != nil {
		return "", err
	}
	if err := r.RunGitCommand("commit", "-m", message); err != nil {
		return "", err
	}
	return r.GetRevision("HEAD")
}

// CreateAndCheckoutBranch creates and checks out a new branch.
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.RunGitCommand("checkout", "-b", name)
}

// CheckoutBranch checks out a branch.
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.RunGitCommand("checkout", name)
}

// GetRevision returns the SHA of a revision (branch, tag, or commit reference).
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", rev)
}

// CherryPickInProgress checks if a cherry-pick is stopped on a conflict.
func (r *GitRepo) CherryPickInProgress() bool {
	_, err := os.Stat(filepath.Join(r.Dir, ".git", "CHERRY_PICK_HEAD"))
	return err == nil
}

// Subjects returns the commit subjects reachable from HEAD, newest first.
func (r *GitRepo) Subjects() ([]string, error) {
	output, err := r.RunGitCommandAndGetOutput("log", "--format=%s")
	if err != nil {
		return nil, err
	}
	return splitLines(output), nil
}

// Status returns the porcelain status of the working tree.
func (r *GitRepo) Status() (string, error) {
	return r.RunGitCommandAndGetOutput("status", "--porcelain")
}

// CreateBareRemote creates a bare git repository to act as a remote.
// Returns the path to the bare repository.
func (r *GitRepo) CreateBareRemote(name string) (string, error) {
	bareDir := r.Dir + "-" + name + ".git"

	cmd := exec.Command("git", "init", "--bare", bareDir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to create bare repo: %w", err)
	}
	if err := r.RunGitCommand("remote", "add", name, bareDir); err != nil {
		return "", fmt.Errorf("failed to add remote: %w", err)
	}
	return bareDir, nil
}

// splitLines splits a string by newlines and returns non-empty lines.
func splitLines(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
