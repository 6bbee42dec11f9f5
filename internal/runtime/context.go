package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"smartpick.dev/smartpick/internal/config"
	"smartpick.dev/smartpick/internal/engine"
	"smartpick.dev/smartpick/internal/git"
	"smartpick.dev/smartpick/internal/session"
	"smartpick.dev/smartpick/internal/stats"
	"smartpick.dev/smartpick/internal/tui"
)

// Options controls how a Context is opened
type Options struct {
	// Dir is any path inside the repository; empty means the working directory
	Dir string
	// Out receives console output; nil means stdout
	Out       io.Writer
	Verbose   bool
	Overrides []string
	// NoLogFile disables the rotating log file
	NoLogFile bool
}

// Context provides access to the repository and output for commands
type Context struct {
	Context context.Context
	Splog   *tui.Splog
	Repo    *git.Repository
	Config  *config.Config
	Store   *session.FileStore
	Verbose bool
}

// Open creates a Context for the repository containing opts.Dir
func Open(ctx context.Context, opts Options) (*Context, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	repo, err := git.OpenRepository(dir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repo.GitDir())
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(opts.Overrides); err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logFile := ""
	if !opts.NoLogFile {
		logFile = tui.LogFilePath(repo.GitDir())
	}
	splog, err := tui.NewSplogWithConfig(out, logFile, opts.Verbose || os.Getenv("DEBUG") != "")
	if err != nil {
		return nil, err
	}

	return &Context{
		Context: ctx,
		Splog:   splog,
		Repo:    repo,
		Config:  cfg,
		Store:   session.NewFileStore(repo.GitDir()),
		Verbose: opts.Verbose,
	}, nil
}

// Logger returns the structured logger handed to engine components
func (c *Context) Logger() *slog.Logger {
	return c.Splog.Logger()
}

// GitDir returns the repository's .git directory
func (c *Context) GitDir() string {
	return c.Repo.GitDir()
}

// Planner creates a planner reading history from the repository, treating
// everything reachable from HEAD as already applied
func (c *Context) Planner() (*engine.Planner, error) {
	provider, err := git.NewProvider(c.Repo, "HEAD")
	if err != nil {
		return nil, err
	}
	return engine.NewPlanner(provider, c.Config.EngineOptions(), c.Logger()), nil
}

// Runner creates a runner applying commits to the working tree. Events go
// to sinks and, when record_stats is set, to the stats file.
func (c *Context) Runner(sinks ...engine.EventSink) *engine.Runner {
	if c.Config.RecordStats {
		sinks = append(sinks, stats.NewRecorder(stats.Path(c.GitDir()), c.Logger()))
	}
	return engine.NewRunner(engine.RunnerOptions{
		Gateway:         git.NewGateway(c.Repo.Root(), c.Config.RenameDetectionThreshold, c.Logger()),
		Store:           c.Store,
		RenameThreshold: c.Config.RenameDetectionThreshold,
		Events:          engine.MultiSink(sinks),
		Logger:          c.Logger(),
	})
}

// GitRunner returns a command runner rooted at the working tree
func (c *Context) GitRunner() *git.CommandRunner {
	return git.NewCommandRunner(c.Repo.Root())
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}
