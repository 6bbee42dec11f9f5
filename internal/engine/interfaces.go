package engine

import (
	"context"
)

// MetadataProvider answers questions about commits and their history.
// Implementations may cache; the engine treats returned commits as immutable.
type MetadataProvider interface {
	// Resolve returns the commit named by id (full or abbreviated hash, or any revision)
	Resolve(ctx context.Context, id string) (*Commit, error)
	// AncestryRange returns the commits from start to end inclusive, oldest first
	AncestryRange(ctx context.Context, start, end string) ([]*Commit, error)
	// LastModifier returns the nearest ancestor of before that modified file,
	// searching at most maxDepth steps. It returns nil when there is none.
	LastModifier(ctx context.Context, file string, before *Commit, maxDepth int) (*Commit, error)
}

// ApplyOutcome is the shape of an apply or simulate result
type ApplyOutcome string

const (
	// ApplySuccess means the commit applied cleanly
	ApplySuccess ApplyOutcome = "success"
	// ApplyConflict means the commit applied with conflicted files
	ApplyConflict ApplyOutcome = "conflict"
)

// ApplyResult is returned by ApplyGateway.Apply and ApplyGateway.Simulate.
// A fatal failure is reported through the error return instead.
type ApplyResult struct {
	Outcome         ApplyOutcome
	ConflictedFiles []string
}

// Success returns a clean ApplyResult
func Success() ApplyResult {
	return ApplyResult{Outcome: ApplySuccess}
}

// Conflict returns an ApplyResult listing conflicted files
func Conflict(files ...string) ApplyResult {
	return ApplyResult{Outcome: ApplyConflict, ConflictedFiles: files}
}

// FileVersion is one side of a conflicted file
type FileVersion struct {
	Content []byte
	Present bool
}

// FileSides holds the three-way view of a conflicted path plus an optional
// rename candidate on our side.
type FileSides struct {
	Path   string
	Base   FileVersion
	Ours   FileVersion
	Theirs FileVersion
	// RenamedTo is the path our side moved the file to, when one was detected
	RenamedTo   string
	RenamedOurs FileVersion
}

// Resolution tells the gateway how to settle one conflicted path
type Resolution struct {
	Path    string
	Content []byte
	// RemovePath is deleted from the index and working tree when set
	RemovePath string
}

// ApplyGateway performs the primitive operations on the working tree.
// Simulate, SimulateResolved, Inspect and Head never mutate the checkout.
type ApplyGateway interface {
	Apply(ctx context.Context, c *Commit) (ApplyResult, error)
	Simulate(ctx context.Context, c *Commit) (ApplyResult, error)
	// SimulateResolved settles the last conflicted Simulate with resolutions
	// so later simulations build on the merged result
	SimulateResolved(ctx context.Context, resolutions []Resolution) error
	// Inspect describes a path reported by the most recent Apply or Simulate
	Inspect(ctx context.Context, path string) (*FileSides, error)
	// MarkResolved records merged content and completes the open apply
	MarkResolved(ctx context.Context, resolutions []Resolution) error
	// StageResolved records merged content but leaves the apply open
	StageResolved(ctx context.Context, resolutions []Resolution) error
	// Continue completes an apply the user resolved by hand. It returns
	// errors.ErrNoCherryPickInProgress when no apply is open any more.
	Continue(ctx context.Context) (ApplyResult, error)
	Abort(ctx context.Context) error
	// Head returns the commit the working tree is currently on
	Head(ctx context.Context) (string, error)
}

// SessionStore persists sessions between process runs
type SessionStore interface {
	Save(s *Session) error
	Load(runID string) (*Session, error)
	Delete(runID string) error
	List() ([]string, error)
}

// EventSink receives run events; implementations must not block the run
type EventSink interface {
	Emit(e Event)
}
