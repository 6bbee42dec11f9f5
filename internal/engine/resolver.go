package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// ResolverState is a step of the per-commit conflict state machine
type ResolverState string

const (
	StateDetected     ResolverState = "detected"
	StateClassified   ResolverState = "classified"
	StateAutoResolved ResolverState = "auto-resolved"
	StateNeedsManual  ResolverState = "needs-manual"
	StateUnresolved   ResolverState = "unresolved"
)

// Resolver classifies conflicted files and settles the ones it can
type Resolver struct {
	gateway         ApplyGateway
	renameThreshold int
	logger          *slog.Logger
}

// NewResolver creates a Resolver. renameThreshold is on a 0-100 scale.
func NewResolver(gateway ApplyGateway, renameThreshold int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Resolver{gateway: gateway, renameThreshold: renameThreshold, logger: logger}
}

// fileOutcome carries a classification together with the resolution it implies
type fileOutcome struct {
	conflict   FileConflict
	resolution *Resolution
}

// Classify determines the conflict kind of one file; it never mutates anything
func (r *Resolver) Classify(sides *FileSides) FileConflict {
	fc := FileConflict{Path: sides.Path}

	if sides.RenamedTo != "" && sides.RenamedOurs.Present && sides.Theirs.Present {
		similarity := Similarity(string(sides.RenamedOurs.Content), string(sides.Theirs.Content))
		if similarity > r.renameThreshold {
			fc.Kind = ConflictRename
			fc.RenamedTo = sides.RenamedTo
			fc.Similarity = similarity
			return fc
		}
	}

	switch {
	case sides.Ours.Present != sides.Theirs.Present:
		fc.Kind = ConflictDeleteModify
	case IsBinary(sides.Ours.Content) || IsBinary(sides.Theirs.Content) || IsBinary(sides.Base.Content):
		fc.Kind = ConflictBinary
	default:
		fc.Kind = ConflictContent
	}
	return fc
}

// attempt tries the automatic resolutions in order for one classified file
func (r *Resolver) attempt(sides *FileSides, fc FileConflict, mode Mode) fileOutcome {
	switch fc.Kind {
	case ConflictRename:
		fc.Verdict = VerdictAutoResolved
		return fileOutcome{conflict: fc, resolution: &Resolution{
			Path:       fc.RenamedTo,
			Content:    sides.Theirs.Content,
			RemovePath: sides.Path,
		}}
	case ConflictContent:
		if merged, ok := UnionMerge(string(sides.Base.Content), string(sides.Ours.Content), string(sides.Theirs.Content)); ok {
			fc.Verdict = VerdictAutoResolved
			return fileOutcome{conflict: fc, resolution: &Resolution{Path: sides.Path, Content: []byte(merged)}}
		}
	}

	if mode == ModeAuto {
		fc.Verdict = VerdictUnresolved
	} else {
		fc.Verdict = VerdictNeedsManual
	}
	return fileOutcome{conflict: fc}
}

// Resolve runs the state machine for one conflicted apply attempt. In dry-run
// mode the working tree is never touched: resolved conflicts are settled
// through SimulateResolved and nothing is aborted.
// An error means the gateway failed fatally while inspecting or resolving.
func (r *Resolver) Resolve(ctx context.Context, c *Commit, files []string, mode Mode) (*ConflictReport, error) {
	simulate := mode == ModeDryRun
	report := &ConflictReport{Commit: c.ID}
	state := StateDetected
	r.logger.Debug("conflict resolution started",
		slog.String("commit", c.ShortID()),
		slog.String("state", string(state)),
		slog.Int("files", len(files)))

	outcomes := make([]fileOutcome, 0, len(files))
	for _, path := range files {
		sides, err := r.gateway.Inspect(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect conflicted file %s: %w", path, err)
		}
		outcomes = append(outcomes, r.attempt(sides, r.Classify(sides), mode))
	}
	state = StateClassified

	allResolved := len(outcomes) > 0
	resolutions := make([]Resolution, 0, len(outcomes))
	for _, o := range outcomes {
		report.Files = append(report.Files, o.conflict)
		if o.resolution == nil {
			allResolved = false
			continue
		}
		resolutions = append(resolutions, *o.resolution)
	}

	switch {
	case allResolved:
		state = StateAutoResolved
		report.Verdict = VerdictAutoResolved
		if simulate {
			if err := r.gateway.SimulateResolved(ctx, resolutions); err != nil {
				return nil, fmt.Errorf("failed to simulate resolution for %s: %w", c.ShortID(), err)
			}
		} else if err := r.gateway.MarkResolved(ctx, resolutions); err != nil {
			return nil, fmt.Errorf("failed to record resolution for %s: %w", c.ShortID(), err)
		}
	case mode == ModeAuto:
		state = StateUnresolved
		report.Verdict = VerdictUnresolved
		if !simulate {
			if err := r.gateway.Abort(ctx); err != nil {
				return nil, fmt.Errorf("failed to abort %s: %w", c.ShortID(), err)
			}
		}
	default:
		// The apply stays open so the caller can resolve it by hand. Files
		// that did merge are staged so only the rest are left to the user.
		state = StateNeedsManual
		report.Verdict = VerdictNeedsManual
		if !simulate && len(resolutions) > 0 {
			if err := r.gateway.StageResolved(ctx, resolutions); err != nil {
				return nil, fmt.Errorf("failed to stage resolved files of %s: %w", c.ShortID(), err)
			}
		}
	}

	r.logger.Debug("conflict resolution finished",
		slog.String("commit", c.ShortID()),
		slog.String("state", string(state)))
	return report, nil
}
