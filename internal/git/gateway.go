package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
)

// stageEntry is one index stage of a conflicted path
type stageEntry struct {
	stage int
	hash  string
}

// Gateway applies commits to the working tree with the git CLI. Simulations
// use merge-tree, which only writes objects, so refs, index and working tree
// stay untouched. Clean and auto-resolved simulations are chained on a
// detached commit so later commits are simulated on top of earlier ones.
type Gateway struct {
	runner          *CommandRunner
	renameThreshold int
	logger          *slog.Logger

	current string
	onto    string
	stages  map[string][]stageEntry
	order   []string
	simHead string
	// simTree is the merge-tree result of the last conflicted simulation
	simTree string
}

// NewGateway creates a Gateway for the repository at root
func NewGateway(root string, renameThreshold int, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Gateway{
		runner:          NewCommandRunner(root).WithEnv("GIT_EDITOR=true"),
		renameThreshold: renameThreshold,
		logger:          logger,
		stages:          make(map[string][]stageEntry),
	}
}

// Apply cherry-picks c onto HEAD. Commits whose change is already present are dropped.
func (g *Gateway) Apply(ctx context.Context, c *engine.Commit) (engine.ApplyResult, error) {
	g.reset(c.ID)
	g.onto = "HEAD"
	args := []string{"cherry-pick"}
	merge, err := g.isMerge(ctx, c.ID)
	if err != nil {
		return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, "", err)
	}
	if merge {
		// Replay the merge against its first parent, the same base Simulate uses.
		args = append(args, "-m", "1")
	}
	_, err = g.runner.Run(ctx, append(args, c.ID)...)
	if err == nil {
		return engine.Success(), nil
	}

	if err := g.loadUnmerged(ctx); err != nil {
		return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, "failed to read index", err)
	}
	if len(g.order) > 0 {
		return engine.Conflict(g.order...), nil
	}

	inProgress, checkErr := g.inProgress(ctx)
	if checkErr != nil {
		return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, "", checkErr)
	}
	if inProgress {
		// Nothing conflicted but the pick stopped: its change is already on HEAD.
		g.logger.Debug("dropping empty cherry-pick", slog.String("commit", c.ShortID()))
		if _, err := g.runner.Run(ctx, "cherry-pick", "--skip"); err != nil {
			return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, "failed to drop empty pick", err)
		}
		return engine.Success(), nil
	}
	return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, commandOutput(err), err)
}

// Simulate merges c onto the simulated head in memory
func (g *Gateway) Simulate(ctx context.Context, c *engine.Commit) (engine.ApplyResult, error) {
	g.reset(c.ID)
	ours := g.simulatedHead()
	g.onto = ours
	out, err := g.runner.Run(ctx, "-c", "core.quotePath=false", "merge-tree", "--write-tree",
		"--merge-base="+c.ID+"^", ours, c.ID)
	conflicted := false
	if err != nil {
		var gitErr *smerrors.GitCommandError
		if !errors.As(err, &gitErr) || exitCode(gitErr.Err) != 1 {
			return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, commandOutput(err), err)
		}
		out, conflicted = strings.TrimSpace(gitErr.Stdout), true
	}

	lines := strings.Split(out, "\n")
	tree := strings.TrimSpace(lines[0])
	if conflicted {
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "" {
				break
			}
			g.addStage(line)
		}
		// The simulated head only moves once SimulateResolved settles the conflict.
		g.simTree = tree
		return engine.Conflict(g.order...), nil
	}

	if err := g.recordSimulated(ctx, tree); err != nil {
		return engine.ApplyResult{}, smerrors.NewApplyFatalError(c.ID, "failed to record simulated result", err)
	}
	return engine.Success(), nil
}

// SimulateResolved applies resolutions to the tree of the last conflicted
// simulation and chains the result onto the simulated head. The tree is
// built in a throwaway index so the real index is never touched.
func (g *Gateway) SimulateResolved(ctx context.Context, resolutions []engine.Resolution) error {
	if g.simTree == "" {
		return fmt.Errorf("no simulated conflict to resolve")
	}
	dir, err := os.MkdirTemp("", "smartpick-index-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	index := g.runner.WithEnv("GIT_INDEX_FILE=" + filepath.Join(dir, "index"))
	if _, err := index.Run(ctx, "read-tree", g.simTree); err != nil {
		return fmt.Errorf("failed to load simulated tree: %w", err)
	}
	for _, r := range resolutions {
		blob, err := index.RunWithInput(ctx, string(r.Content), "hash-object", "-w", "--stdin")
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Path, err)
		}
		mode, err := indexMode(ctx, index, r.Path)
		if err != nil {
			return err
		}
		if _, err := index.Run(ctx, "update-index", "--add", "--cacheinfo", mode+","+blob+","+r.Path); err != nil {
			return fmt.Errorf("failed to stage %s: %w", r.Path, err)
		}
		if r.RemovePath != "" {
			if _, err := index.Run(ctx, "update-index", "--force-remove", "--", r.RemovePath); err != nil {
				return fmt.Errorf("failed to remove %s: %w", r.RemovePath, err)
			}
		}
	}
	tree, err := index.Run(ctx, "write-tree")
	if err != nil {
		return fmt.Errorf("failed to write simulated tree: %w", err)
	}
	return g.recordSimulated(ctx, tree)
}

// recordSimulated commits tree on top of the simulated head and moves it there
func (g *Gateway) recordSimulated(ctx context.Context, tree string) error {
	head, err := g.runner.WithEnv(
		"GIT_AUTHOR_NAME=smartpick", "GIT_AUTHOR_EMAIL=smartpick@localhost",
		"GIT_COMMITTER_NAME=smartpick", "GIT_COMMITTER_EMAIL=smartpick@localhost",
	).Run(ctx, "commit-tree", tree, "-p", g.simulatedHead(), "-m", "simulated "+g.current)
	if err != nil {
		return err
	}
	g.simHead = head
	g.simTree = ""
	return nil
}

// indexMode returns the file mode path has in the index, or a regular file mode
func indexMode(ctx context.Context, runner *CommandRunner, path string) (string, error) {
	out, err := runner.Run(ctx, "ls-files", "-s", "--", path)
	if err != nil {
		return "", fmt.Errorf("failed to read mode of %s: %w", path, err)
	}
	if fields := strings.Fields(out); len(fields) > 0 && fields[0] != "160000" {
		return fields[0], nil
	}
	return "100644", nil
}

// Inspect returns the stage contents of a path left conflicted by the last
// Apply or Simulate, with a rename candidate when the target moved the file
func (g *Gateway) Inspect(ctx context.Context, path string) (*engine.FileSides, error) {
	entries, ok := g.stages[path]
	if !ok {
		return nil, fmt.Errorf("%s is not conflicted", path)
	}

	sides := &engine.FileSides{Path: path}
	for _, e := range entries {
		content, err := g.runner.RunRaw(ctx, "cat-file", "blob", e.hash)
		if err != nil {
			return nil, fmt.Errorf("failed to read stage %d of %s: %w", e.stage, path, err)
		}
		v := engine.FileVersion{Content: []byte(content), Present: true}
		switch e.stage {
		case 1:
			sides.Base = v
		case 2:
			sides.Ours = v
		case 3:
			sides.Theirs = v
		}
	}

	if !sides.Ours.Present {
		renamedTo, err := g.renameCandidate(ctx, path)
		if err != nil {
			return nil, err
		}
		if renamedTo != "" {
			content, err := g.runner.RunRaw(ctx, "cat-file", "blob", g.onto+":"+renamedTo)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", renamedTo, err)
			}
			sides.RenamedTo = renamedTo
			sides.RenamedOurs = engine.FileVersion{Content: []byte(content), Present: true}
		}
	}
	return sides, nil
}

// MarkResolved stages resolved content and completes the pick
func (g *Gateway) MarkResolved(ctx context.Context, resolutions []engine.Resolution) error {
	if err := g.StageResolved(ctx, resolutions); err != nil {
		return err
	}
	return g.commitPick(ctx)
}

// StageResolved writes resolved content to the working tree and stages it,
// leaving the pick open
func (g *Gateway) StageResolved(ctx context.Context, resolutions []engine.Resolution) error {
	root := g.runner.WorkingDir()
	for _, r := range resolutions {
		target := filepath.Join(root, filepath.FromSlash(r.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, r.Content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Path, err)
		}
		if _, err := g.runner.Run(ctx, "add", "--", r.Path); err != nil {
			return fmt.Errorf("failed to stage %s: %w", r.Path, err)
		}
		if r.RemovePath != "" {
			if _, err := g.runner.Run(ctx, "rm", "-f", "-q", "--ignore-unmatch", "--", r.RemovePath); err != nil {
				return fmt.Errorf("failed to remove %s: %w", r.RemovePath, err)
			}
		}
	}
	return nil
}

// Continue finishes a pick the user resolved by hand. It returns
// ErrNoCherryPickInProgress when the pick was already committed or aborted.
func (g *Gateway) Continue(ctx context.Context) (engine.ApplyResult, error) {
	inProgress, err := g.inProgress(ctx)
	if err != nil {
		return engine.ApplyResult{}, err
	}
	if !inProgress {
		return engine.ApplyResult{}, smerrors.ErrNoCherryPickInProgress
	}

	picked, err := g.runner.Run(ctx, "rev-parse", "CHERRY_PICK_HEAD")
	if err != nil {
		return engine.ApplyResult{}, err
	}
	g.reset(picked)
	if err := g.loadUnmerged(ctx); err != nil {
		return engine.ApplyResult{}, err
	}
	if len(g.order) > 0 {
		return engine.Conflict(g.order...), nil
	}
	if err := g.commitPick(ctx); err != nil {
		return engine.ApplyResult{}, err
	}
	return engine.Success(), nil
}

// Abort rolls back an open cherry-pick
func (g *Gateway) Abort(ctx context.Context) error {
	inProgress, err := g.inProgress(ctx)
	if err != nil {
		return err
	}
	if !inProgress {
		return smerrors.ErrNoCherryPickInProgress
	}
	if _, err := g.runner.Run(ctx, "cherry-pick", "--abort"); err != nil {
		return fmt.Errorf("failed to abort cherry-pick: %w", err)
	}
	g.reset("")
	return nil
}

// Head returns the commit HEAD points at
func (g *Gateway) Head(ctx context.Context) (string, error) {
	head, err := g.runner.Run(ctx, "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head, nil
}

func (g *Gateway) commitPick(ctx context.Context) error {
	_, err := g.runner.Run(ctx, "cherry-pick", "--continue")
	if err == nil {
		return nil
	}
	if strings.Contains(commandOutput(err), "empty") {
		_, err = g.runner.Run(ctx, "cherry-pick", "--skip")
	}
	if err != nil {
		return fmt.Errorf("failed to continue cherry-pick: %w", err)
	}
	return nil
}

func (g *Gateway) isMerge(ctx context.Context, commit string) (bool, error) {
	_, err := g.runner.Run(ctx, "rev-parse", "-q", "--verify", commit+"^2")
	if err == nil {
		return true, nil
	}
	var gitErr *smerrors.GitCommandError
	if errors.As(err, &gitErr) && exitCode(gitErr.Err) == 1 {
		return false, nil
	}
	return false, err
}

func (g *Gateway) inProgress(ctx context.Context) (bool, error) {
	_, err := g.runner.Run(ctx, "rev-parse", "-q", "--verify", "CHERRY_PICK_HEAD")
	if err == nil {
		return true, nil
	}
	var gitErr *smerrors.GitCommandError
	if errors.As(err, &gitErr) && exitCode(gitErr.Err) == 1 {
		return false, nil
	}
	return false, err
}

func (g *Gateway) loadUnmerged(ctx context.Context) error {
	lines, err := g.runner.RunLines(ctx, "-c", "core.quotePath=false", "ls-files", "-u")
	if err != nil {
		return err
	}
	g.stages = make(map[string][]stageEntry)
	g.order = nil
	for _, line := range lines {
		g.addStage(line)
	}
	return nil
}

// addStage parses "<mode> <object> <stage>\t<path>"
func (g *Gateway) addStage(line string) {
	meta, path, ok := strings.Cut(line, "\t")
	if !ok {
		return
	}
	fields := strings.Fields(meta)
	if len(fields) != 3 {
		return
	}
	stage, err := strconv.Atoi(fields[2])
	if err != nil {
		return
	}
	if _, seen := g.stages[path]; !seen {
		g.order = append(g.order, path)
	}
	g.stages[path] = append(g.stages[path], stageEntry{stage: stage, hash: fields[1]})
}

// renameCandidate finds where the target side moved path since the pick's base
func (g *Gateway) renameCandidate(ctx context.Context, path string) (string, error) {
	lines, err := g.runner.RunLines(ctx, "-c", "core.quotePath=false", "diff", "--name-status",
		fmt.Sprintf("-M%d%%", g.renameThreshold), g.current+"^", g.onto)
	if err != nil {
		return "", fmt.Errorf("failed to detect renames of %s: %w", path, err)
	}
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) == 3 && strings.HasPrefix(fields[0], "R") && fields[1] == path {
			return fields[2], nil
		}
	}
	return "", nil
}

func (g *Gateway) reset(commit string) {
	g.current = commit
	g.onto = "HEAD"
	g.stages = make(map[string][]stageEntry)
	g.order = nil
	g.simTree = ""
}

func (g *Gateway) simulatedHead() string {
	if g.simHead != "" {
		return g.simHead
	}
	return "HEAD"
}

func commandOutput(err error) string {
	var gitErr *smerrors.GitCommandError
	if errors.As(err, &gitErr) {
		return gitErr.Output()
	}
	return err.Error()
}
