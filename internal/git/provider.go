package git

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
)

// Provider answers commit metadata questions from the object database.
// Ranks are generation numbers: a root commit is 0 and every other commit
// is one more than its highest parent, so ancestors always rank lower.
type Provider struct {
	repo   *Repository
	cmd    *CommandRunner
	target plumbing.Hash

	mu      sync.Mutex
	ranks   map[plumbing.Hash]int
	commits map[plumbing.Hash]*engine.Commit
	picked  map[plumbing.Hash]bool
}

// NewProvider creates a Provider. Commits reachable from target, and
// commits whose change the target already carries under another hash, are
// considered present and never reported as prerequisites.
func NewProvider(repo *Repository, target string) (*Provider, error) {
	hash, err := repo.ResolveHash(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target %s: %w", target, err)
	}
	return &Provider{
		repo:    repo,
		cmd:     NewCommandRunner(repo.Root()),
		target:  hash,
		ranks:   make(map[plumbing.Hash]int),
		commits: make(map[plumbing.Hash]*engine.Commit),
		picked:  make(map[plumbing.Hash]bool),
	}, nil
}

// Resolve returns the commit a revision names
func (p *Provider) Resolve(_ context.Context, id string) (*engine.Commit, error) {
	hash, err := p.repo.ResolveHash(id)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(hash)
}

// AncestryRange lists start..end inclusive, oldest first: every commit
// reachable from end that is not reachable from a parent of start.
func (p *Provider) AncestryRange(ctx context.Context, start, end string) ([]*engine.Commit, error) {
	startHash, err := p.repo.ResolveHash(start)
	if err != nil {
		return nil, smerrors.NewRangeResolutionError(start, end, err.Error())
	}
	endHash, err := p.repo.ResolveHash(end)
	if err != nil {
		return nil, smerrors.NewRangeResolutionError(start, end, err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	startCommit, err := p.load(startHash)
	if err != nil {
		return nil, err
	}
	excluded, err := p.reachable(ctx, startCommit.Parents...)
	if err != nil {
		return nil, err
	}
	included, err := p.reachableExcept(ctx, excluded, endHash.String())
	if err != nil {
		return nil, err
	}
	if !slices.Contains(included, startHash.String()) {
		return nil, smerrors.NewRangeResolutionError(start, end, "start is not an ancestor of end")
	}

	out := make([]*engine.Commit, 0, len(included))
	for _, id := range included {
		c, err := p.load(plumbing.NewHash(id))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b *engine.Commit) int {
		if a.Rank != b.Rank {
			return a.Rank - b.Rank
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// LastModifier walks back from before, one generation per step, and returns
// the nearest commit that changed file. A modifier already on the target is
// reported as no prerequisite at all.
func (p *Provider) LastModifier(ctx context.Context, file string, before *engine.Commit, maxDepth int) (*engine.Commit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frontier := make([]plumbing.Hash, 0, len(before.Parents))
	for _, id := range before.Parents {
		frontier = append(frontier, plumbing.NewHash(id))
	}
	seen := make(map[plumbing.Hash]bool)

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []plumbing.Hash
		for _, hash := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if seen[hash] {
				continue
			}
			seen[hash] = true

			c, err := p.repo.commitObject(hash)
			if err != nil {
				return nil, err
			}
			if c == nil {
				continue
			}
			touched, err := p.touches(c, file)
			if err != nil {
				return nil, err
			}
			if touched {
				present, err := p.present(ctx, c)
				if err != nil {
					return nil, err
				}
				if present {
					return nil, nil
				}
				return p.load(hash)
			}
			next = append(next, c.ParentHashes...)
		}
		frontier = next
	}
	return nil, nil
}

func (p *Provider) load(hash plumbing.Hash) (*engine.Commit, error) {
	if c, ok := p.commits[hash]; ok {
		return c, nil
	}
	oc, err := p.repo.commitObject(hash)
	if err != nil {
		return nil, err
	}
	if oc == nil {
		return nil, fmt.Errorf("commit %s is not in the object database", hash)
	}

	files, err := changedFiles(oc)
	if err != nil {
		return nil, fmt.Errorf("failed to list files of %s: %w", hash, err)
	}
	rank, err := p.rank(oc)
	if err != nil {
		return nil, err
	}
	parents := make([]string, len(oc.ParentHashes))
	for i, ph := range oc.ParentHashes {
		parents[i] = ph.String()
	}

	c := &engine.Commit{
		ID:      hash.String(),
		Parents: parents,
		Files:   files,
		Rank:    rank,
		Subject: strings.TrimSpace(strings.SplitN(oc.Message, "\n", 2)[0]),
	}
	p.commits[hash] = c
	return c, nil
}

// rank computes generation numbers without recursion so deep histories
// cannot exhaust the stack
func (p *Provider) rank(c *object.Commit) (int, error) {
	if r, ok := p.ranks[c.Hash]; ok {
		return r, nil
	}
	stack := []*object.Commit{c}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if _, ok := p.ranks[top.Hash]; ok {
			stack = stack[:len(stack)-1]
			continue
		}

		best, pending := -1, false
		for _, ph := range top.ParentHashes {
			if r, ok := p.ranks[ph]; ok {
				best = max(best, r)
				continue
			}
			parent, err := p.repo.commitObject(ph)
			if err != nil {
				return 0, err
			}
			if parent == nil {
				// Shallow boundary
				p.ranks[ph] = -1
				continue
			}
			stack = append(stack, parent)
			pending = true
		}
		if pending {
			continue
		}
		p.ranks[top.Hash] = best + 1
		stack = stack[:len(stack)-1]
	}
	return p.ranks[c.Hash], nil
}

// touches reports whether c changed file relative to every parent, which is
// how git log decides that a merge did not touch a path
func (p *Provider) touches(c *object.Commit, file string) (bool, error) {
	own, err := entryHash(c, file)
	if err != nil {
		return false, err
	}
	if len(c.ParentHashes) == 0 {
		return !own.IsZero(), nil
	}
	for _, ph := range c.ParentHashes {
		parent, err := p.repo.commitObject(ph)
		if err != nil {
			return false, err
		}
		if parent == nil {
			return !own.IsZero(), nil
		}
		theirs, err := entryHash(parent, file)
		if err != nil {
			return false, err
		}
		if theirs == own {
			return false, nil
		}
	}
	return true, nil
}

// present reports whether c, or a patch-equivalent copy of it, is on the target
func (p *Provider) present(ctx context.Context, c *object.Commit) (bool, error) {
	onTarget, err := p.onTarget(c)
	if err != nil || onTarget {
		return onTarget, err
	}
	return p.pickedOnto(ctx, c)
}

// pickedOnto asks git cherry whether the target has a commit with the same
// patch id as c, which is what an earlier cherry-pick leaves behind
func (p *Provider) pickedOnto(ctx context.Context, c *object.Commit) (bool, error) {
	if picked, ok := p.picked[c.Hash]; ok {
		return picked, nil
	}
	if len(c.ParentHashes) != 1 {
		return false, nil
	}
	parent, err := p.repo.commitObject(c.ParentHashes[0])
	if err != nil || parent == nil {
		return false, err
	}
	out, err := p.cmd.Run(ctx, "cherry", p.target.String(), c.Hash.String(), parent.Hash.String())
	if err != nil {
		return false, fmt.Errorf("failed to compare %s with the target: %w", c.Hash, err)
	}
	picked := strings.HasPrefix(out, "-")
	p.picked[c.Hash] = picked
	return picked, nil
}

func (p *Provider) onTarget(c *object.Commit) (bool, error) {
	if c.Hash == p.target {
		return true, nil
	}
	target, err := p.repo.commitObject(p.target)
	if err != nil || target == nil {
		return false, err
	}
	return c.IsAncestor(target)
}

// reachable returns every commit reachable from the given ids
func (p *Provider) reachable(ctx context.Context, ids ...string) (map[string]bool, error) {
	seen := make(map[string]bool)
	queue := append([]string(nil), ids...)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		c, err := p.repo.commitObject(plumbing.NewHash(id))
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		for _, ph := range c.ParentHashes {
			queue = append(queue, ph.String())
		}
	}
	return seen, nil
}

func (p *Provider) reachableExcept(ctx context.Context, excluded map[string]bool, from string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	queue := []string{from}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		if seen[id] || excluded[id] {
			continue
		}
		seen[id] = true
		c, err := p.repo.commitObject(plumbing.NewHash(id))
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		out = append(out, id)
		for _, ph := range c.ParentHashes {
			queue = append(queue, ph.String())
		}
	}
	return out, nil
}

// changedFiles lists the paths a commit changed against its first parent
func changedFiles(c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	var files []string
	if c.NumParents() == 0 {
		err := tree.Files().ForEach(func(f *object.File) error {
			files = append(files, f.Name)
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.Sort(files)
		return files, nil
	}

	parent, err := c.Parent(0)
	if err != nil {
		return nil, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return nil, err
	}
	for _, change := range changes {
		if change.From.Name != "" {
			files = append(files, change.From.Name)
		}
		if change.To.Name != "" && change.To.Name != change.From.Name {
			files = append(files, change.To.Name)
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// entryHash returns the blob hash of path in c, or the zero hash when absent
func entryHash(c *object.Commit, path string) (plumbing.Hash, error) {
	tree, err := c.Tree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	entry, err := tree.FindEntry(path)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return entry.Hash, nil
}
