package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	smerrors "smartpick.dev/smartpick/internal/errors"
)

// Runner drives a plan through the apply gateway one commit at a time.
// There is one working tree, so commits are never applied concurrently.
type Runner struct {
	gateway  ApplyGateway
	store    SessionStore
	resolver *Resolver
	events   EventSink
	logger   *slog.Logger
}

// RunnerOptions configures a Runner
type RunnerOptions struct {
	Gateway         ApplyGateway
	Store           SessionStore
	RenameThreshold int
	Events          EventSink
	Logger          *slog.Logger
}

// NewRunner creates a Runner
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	events := opts.Events
	if events == nil {
		events = discardSink{}
	}
	return &Runner{
		gateway:  opts.Gateway,
		store:    opts.Store,
		resolver: NewResolver(opts.Gateway, opts.RenameThreshold, logger),
		events:   events,
		logger:   logger,
	}
}

// Run applies plan under runID. If a session for runID already exists it is
// verified against plan and resumed, so repeated calls with the same id are
// idempotent. Dry runs never read or write the store.
func (r *Runner) Run(ctx context.Context, plan *Plan, mode Mode, runID string) (*Session, error) {
	if runID == "" {
		runID = NewRunID()
	}
	if mode == ModeDryRun {
		return r.drive(ctx, NewSession(runID, plan, mode))
	}

	existing, err := r.store.Load(runID)
	switch {
	case err == nil:
		if err := existing.Verify(plan); err != nil {
			return nil, err
		}
		existing.Mode = mode
		r.logger.Debug("resuming session", slog.String("run", runID), slog.Int("cursor", existing.Cursor))
		return r.drive(ctx, existing)
	case errors.Is(err, smerrors.ErrSessionNotFound):
	default:
		return nil, fmt.Errorf("failed to load session %s: %w", runID, err)
	}

	s := NewSession(runID, plan, mode)
	if err := r.store.Save(s); err != nil {
		return nil, fmt.Errorf("failed to save session %s: %w", runID, err)
	}
	r.emit(s, EventPlanned, -1, fmt.Sprintf("%d commits", len(plan.Commits)))
	return r.drive(ctx, s)
}

// Resume reloads a persisted session, re-plans its request with the
// planner's current options and continues it when nothing changed.
func (r *Runner) Resume(ctx context.Context, runID string, planner *Planner) (*Session, error) {
	s, err := r.reload(ctx, runID, planner)
	if err != nil {
		return nil, err
	}
	return r.drive(ctx, s)
}

// Skip gives up on the conflicted commit a paused session stopped at,
// aborting its open apply, and continues with the rest of the plan.
func (r *Runner) Skip(ctx context.Context, runID string, planner *Planner) (*Session, error) {
	s, err := r.reload(ctx, runID, planner)
	if err != nil {
		return nil, err
	}
	i := s.Cursor
	if s.Done() || s.Entries[i].Status != StatusConflicted {
		return nil, fmt.Errorf("session %s is not paused on a conflict", runID)
	}
	if err := r.gateway.Abort(ctx); err != nil && !errors.Is(err, smerrors.ErrNoCherryPickInProgress) {
		return nil, fmt.Errorf("failed to abort cherry-pick: %w", err)
	}
	s.set(i, StatusSkipped, "skipped by user", s.Entries[i].Report)
	if err := r.save(s); err != nil {
		return s, err
	}
	r.emit(s, EventSkipped, i, s.Entries[i].Reason)
	s.Cursor++
	return r.drive(ctx, s)
}

func (r *Runner) reload(ctx context.Context, runID string, planner *Planner) (*Session, error) {
	s, err := r.store.Load(runID)
	if err != nil {
		return nil, err
	}
	fresh, err := planner.Plan(ctx, s.Plan.Request)
	if err != nil {
		return nil, fmt.Errorf("failed to re-plan session %s: %w", runID, err)
	}
	if err := s.Verify(fresh); err != nil {
		return nil, err
	}
	return s, nil
}

// Discard aborts any open apply and deletes the session
func (r *Runner) Discard(ctx context.Context, runID string) error {
	if err := r.gateway.Abort(ctx); err != nil && !errors.Is(err, smerrors.ErrNoCherryPickInProgress) {
		return fmt.Errorf("failed to abort cherry-pick: %w", err)
	}
	return r.store.Delete(runID)
}

func (r *Runner) drive(ctx context.Context, s *Session) (*Session, error) {
	total := len(s.Entries)
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		i := s.Cursor
		entry := s.Entries[i]
		if entry.Status.IsDone() {
			s.Cursor++
			continue
		}

		c := s.commit(i)
		var (
			result ApplyResult
			note   string
			err    error
		)
		switch {
		case s.Simulated:
			result, err = r.gateway.Simulate(ctx, c)
		case entry.Status == StatusConflicted:
			// Left open by an earlier interactive run; the user may have resolved it since.
			result, note, err = r.reopen(ctx, entry, c)
		default:
			result, err = r.gateway.Apply(ctx, c)
		}
		if err != nil {
			return r.fail(s, i, err)
		}

		proceed, err := r.fold(ctx, s, i, c, result)
		if err != nil {
			return r.fail(s, i, err)
		}
		if note != "" {
			s.Entries[i].Reason = note
		}
		if err := r.save(s); err != nil {
			return s, err
		}
		r.emit(s, eventFor(s.Entries[i]), i, s.Entries[i].Reason)
		if !proceed {
			r.logger.Debug("run paused for manual resolution", slog.String("commit", c.ShortID()))
			return s, nil
		}
		s.Cursor++
	}

	r.emit(s, EventFinished, total, summarize(s))
	if !s.Simulated && s.Clean() {
		if err := r.store.Delete(s.RunID); err != nil {
			return s, fmt.Errorf("failed to delete finished session %s: %w", s.RunID, err)
		}
	}
	return s, nil
}

// reopen continues the apply a paused entry left open. When the pick is no
// longer open, a HEAD that moved since the pause means the user committed
// it; otherwise it was aborted outside the run and is applied again.
func (r *Runner) reopen(ctx context.Context, entry Entry, c *Commit) (ApplyResult, string, error) {
	result, err := r.gateway.Continue(ctx)
	if !errors.Is(err, smerrors.ErrNoCherryPickInProgress) {
		return result, "", err
	}
	head, err := r.gateway.Head(ctx)
	if err != nil {
		return ApplyResult{}, "", err
	}
	if entry.Head != "" && head != entry.Head {
		r.logger.Debug("paused commit was committed outside the run", slog.String("commit", c.ShortID()))
		return Success(), "committed outside smartpick", nil
	}
	r.logger.Debug("paused cherry-pick was aborted, applying again", slog.String("commit", c.ShortID()))
	result, err = r.gateway.Apply(ctx, c)
	return result, "", err
}

// fold records the outcome of one apply attempt and reports whether the run may continue
func (r *Runner) fold(ctx context.Context, s *Session, i int, c *Commit, result ApplyResult) (bool, error) {
	if result.Outcome == ApplySuccess {
		s.set(i, StatusApplied, "", nil)
		return true, nil
	}

	report, err := r.resolver.Resolve(ctx, c, result.ConflictedFiles, s.Mode)
	if err != nil {
		return false, err
	}
	switch report.Verdict {
	case VerdictAutoResolved:
		s.set(i, StatusApplied, "conflicts resolved automatically", report)
		return true, nil
	case VerdictUnresolved:
		s.set(i, StatusSkipped, "unresolved conflicts in "+conflictPaths(report), report)
		return true, nil
	default:
		s.set(i, StatusConflicted, "needs manual resolution in "+conflictPaths(report), report)
		if s.Simulated {
			return true, nil
		}
		head, err := r.gateway.Head(ctx)
		if err != nil {
			return false, err
		}
		s.Entries[i].Head = head
		return false, nil
	}
}

func (r *Runner) fail(s *Session, i int, cause error) (*Session, error) {
	var fatal *smerrors.ApplyFatalError
	if !errors.As(cause, &fatal) {
		fatal = smerrors.NewApplyFatalError(s.Entries[i].ID, "", cause)
	}
	s.set(i, StatusFailed, fatal.Error(), nil)
	if err := r.save(s); err != nil {
		return s, errors.Join(fatal, err)
	}
	r.emit(s, EventFailed, i, fatal.Error())
	return s, fatal
}

func (r *Runner) save(s *Session) error {
	if s.Simulated {
		return nil
	}
	if err := r.store.Save(s); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.RunID, err)
	}
	return nil
}

func (r *Runner) emit(s *Session, kind EventKind, i int, detail string) {
	e := Event{
		Time:      time.Now().UTC(),
		RunID:     s.RunID,
		Kind:      kind,
		Index:     i,
		Total:     len(s.Entries),
		Detail:    detail,
		Simulated: s.Simulated,
	}
	if i >= 0 && i < len(s.Entries) {
		e.Commit = s.Entries[i].ID
	}
	r.events.Emit(e)
}

func eventFor(e Entry) EventKind {
	switch e.Status {
	case StatusApplied:
		if e.Report != nil {
			return EventAutoResolved
		}
		return EventApplied
	case StatusSkipped:
		return EventSkipped
	case StatusConflicted:
		return EventConflicted
	default:
		return EventFailed
	}
}

func conflictPaths(report *ConflictReport) string {
	var paths []string
	for _, f := range report.Files {
		if f.Verdict != VerdictAutoResolved {
			paths = append(paths, fmt.Sprintf("%s (%s)", f.Path, f.Kind))
		}
	}
	return strings.Join(paths, ", ")
}

func summarize(s *Session) string {
	return fmt.Sprintf("applied=%d skipped=%d conflicted=%d failed=%d pending=%d",
		s.Count(StatusApplied), s.Count(StatusSkipped), s.Count(StatusConflicted),
		s.Count(StatusFailed), s.Count(StatusPending))
}
