package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository wraps a go-git repository
type Repository struct {
	*git.Repository
	root string
	// go-git object access is not safe for concurrent packfile reads
	mu sync.Mutex
}

// OpenRepository opens the git repository containing path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repository{Repository: repo, root: worktree.Filesystem.Root()}, nil
}

// Root returns the top of the working tree
func (r *Repository) Root() string {
	return r.root
}

// GitDir returns the path of the .git directory
func (r *Repository) GitDir() string {
	return filepath.Join(r.root, ".git")
}

// ResolveHash turns any revision expression into a commit hash
func (r *Repository) ResolveHash(rev string) (plumbing.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ref, err := r.Reference(plumbing.ReferenceName("refs/heads/"+rev), true); err == nil {
		return ref.Hash(), nil
	}
	hash, err := r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve %q: %w", rev, err)
	}
	return *hash, nil
}

// commitObject loads a commit; a missing object in a shallow clone returns nil
func (r *Repository) commitObject(hash plumbing.Hash) (*object.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.CommitObject(hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}
	return c, nil
}
