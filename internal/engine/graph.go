package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	smerrors "smartpick.dev/smartpick/internal/errors"
)

// Graph is the set of commits to apply plus the ordering constraints between them
type Graph struct {
	commits  map[string]*Commit
	order    []string
	index    map[string]int
	implicit map[string]bool
	edges    []Edge
	edgeSeen map[string]bool
	warnings map[string][]MissingDependency
}

func newGraph() *Graph {
	return &Graph{
		commits:  make(map[string]*Commit),
		index:    make(map[string]int),
		implicit: make(map[string]bool),
		edgeSeen: make(map[string]bool),
		warnings: make(map[string][]MissingDependency),
	}
}

func (g *Graph) add(c *Commit, implicit bool) bool {
	if _, ok := g.commits[c.ID]; ok {
		return false
	}
	g.commits[c.ID] = c
	g.index[c.ID] = len(g.order)
	g.order = append(g.order, c.ID)
	if implicit {
		g.implicit[c.ID] = true
	}
	return true
}

func (g *Graph) addEdge(e Edge) {
	key := e.From + "\x00" + e.To
	if e.From == e.To || g.edgeSeen[key] {
		return
	}
	g.edgeSeen[key] = true
	g.edges = append(g.edges, e)
}

func (g *Graph) warn(w MissingDependency) {
	for _, existing := range g.warnings[w.Commit] {
		if existing.Missing == w.Missing {
			return
		}
	}
	g.warnings[w.Commit] = append(g.warnings[w.Commit], w)
}

// Has reports whether the commit is part of the graph
func (g *Graph) Has(id string) bool {
	_, ok := g.commits[id]
	return ok
}

// Commit returns the commit with the given id, or nil
func (g *Graph) Commit(id string) *Commit {
	return g.commits[id]
}

// Commits returns every commit in request order, implicit prerequisites last in discovery order
func (g *Graph) Commits() []*Commit {
	out := make([]*Commit, len(g.order))
	for i, id := range g.order {
		out[i] = g.commits[id]
	}
	return out
}

// Edges returns the dependency edges in the order they were discovered
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// IsImplicit reports whether a commit was added as a discovered prerequisite
func (g *Graph) IsImplicit(id string) bool {
	return g.implicit[id]
}

// Warnings returns the missing-dependency warnings attached to a commit
func (g *Graph) Warnings(id string) []MissingDependency {
	return g.warnings[id]
}

// checkIntegrity rejects edges that do not move forward in ancestry
func (g *Graph) checkIntegrity() error {
	for _, e := range g.edges {
		from, to := g.commits[e.From], g.commits[e.To]
		if from == nil || to == nil {
			return smerrors.NewGraphIntegrityError(e.From, e.To, "edge references a commit outside the graph")
		}
		if from.Rank >= to.Rank {
			return smerrors.NewGraphIntegrityError(e.From, e.To,
				fmt.Sprintf("prerequisite rank %d is not below dependent rank %d", from.Rank, to.Rank))
		}
	}
	return nil
}

// Builder discovers the commits a request depends on
type Builder struct {
	provider MetadataProvider
	opts     Options
	logger   *slog.Logger
}

// NewBuilder creates a Builder
func NewBuilder(provider MetadataProvider, opts Options, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Builder{provider: provider, opts: opts, logger: logger}
}

type frontierItem struct {
	commit *Commit
	budget int
}

// Build expands the request and walks file history backwards from every
// requested commit. The walk is an explicit frontier so the depth budget
// bounds it regardless of history shape.
func (b *Builder) Build(ctx context.Context, req Request) (*Graph, error) {
	if b.opts.MaxSearchDepth <= 0 {
		return nil, fmt.Errorf("max search depth must be positive, got %d", b.opts.MaxSearchDepth)
	}

	g := newGraph()
	skip := b.resolveSkip(ctx, req.Skip)

	requested, err := b.expand(ctx, req, skip, g)
	if err != nil {
		return nil, err
	}

	frontier := make([]frontierItem, 0, len(requested))
	for _, c := range requested {
		frontier = append(frontier, frontierItem{commit: c, budget: b.opts.MaxSearchDepth})
	}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := frontier[0]
		frontier = frontier[1:]

		for _, file := range item.commit.Files {
			prereq, err := b.provider.LastModifier(ctx, file, item.commit, item.budget)
			if err != nil {
				return nil, fmt.Errorf("failed to search history of %s before %s: %w", file, item.commit.ShortID(), err)
			}
			if prereq == nil || prereq.ID == item.commit.ID {
				continue
			}

			edge := Edge{From: prereq.ID, To: item.commit.ID, Reason: EdgeFileOverlap, File: file}
			if g.Has(prereq.ID) {
				g.addEdge(edge)
				continue
			}

			if !b.opts.AutoAddDependencies || skip[prereq.ID] {
				b.logger.Debug("missing dependency",
					slog.String("commit", item.commit.ShortID()),
					slog.String("missing", prereq.ShortID()),
					slog.String("file", file))
				g.warn(MissingDependency{Commit: item.commit.ID, Missing: prereq.ID, File: file})
				continue
			}

			b.logger.Debug("adding implicit prerequisite",
				slog.String("commit", item.commit.ShortID()),
				slog.String("prerequisite", prereq.ShortID()),
				slog.String("file", file))
			g.add(prereq, true)
			g.addEdge(edge)
			if item.budget > 1 {
				frontier = append(frontier, frontierItem{commit: prereq, budget: item.budget - 1})
			}
		}
	}

	if err := g.checkIntegrity(); err != nil {
		return nil, err
	}
	return g, nil
}

// expand resolves request items, in request order, into the graph
func (b *Builder) expand(ctx context.Context, req Request, skip map[string]bool, g *Graph) ([]*Commit, error) {
	var requested []*Commit
	for _, item := range req.Items {
		if item.Range == nil {
			c, err := b.provider.Resolve(ctx, item.Commit)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve commit %s: %w", item.Commit, err)
			}
			if skip[c.ID] {
				continue
			}
			if g.add(c, false) {
				requested = append(requested, c)
			}
			continue
		}

		commits, err := b.resolveRange(ctx, *item.Range)
		if err != nil {
			return nil, err
		}
		for _, c := range commits {
			if skip[c.ID] {
				continue
			}
			if g.add(c, false) {
				requested = append(requested, c)
			}
		}
		linkRange(g, commits, skip)
	}
	return requested, nil
}

// linkRange orders every range member after its parents inside the same
// range. Skipped members are walked through so their children still follow
// the nearest kept ancestor. Siblings of a merge stay unordered.
func linkRange(g *Graph, commits []*Commit, skip map[string]bool) {
	members := make(map[string]*Commit, len(commits))
	for _, c := range commits {
		members[c.ID] = c
	}
	for _, c := range commits {
		if skip[c.ID] {
			continue
		}
		seen := make(map[string]bool)
		queue := append([]string(nil), c.Parents...)
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			p, ok := members[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			if skip[id] {
				queue = append(queue, p.Parents...)
				continue
			}
			g.addEdge(Edge{From: p.ID, To: c.ID, Reason: EdgeExplicitRange})
		}
	}
}

func (b *Builder) resolveRange(ctx context.Context, r Range) ([]*Commit, error) {
	start, err := b.provider.Resolve(ctx, r.Start)
	if err != nil {
		return nil, smerrors.NewRangeResolutionError(r.Start, r.End, fmt.Sprintf("unknown start commit: %v", err))
	}
	end, err := b.provider.Resolve(ctx, r.End)
	if err != nil {
		return nil, smerrors.NewRangeResolutionError(r.Start, r.End, fmt.Sprintf("unknown end commit: %v", err))
	}
	if end.Rank < start.Rank {
		return nil, smerrors.NewRangeResolutionError(r.Start, r.End, "end precedes start in ancestry")
	}

	commits, err := b.provider.AncestryRange(ctx, start.ID, end.ID)
	if err != nil {
		var rangeErr *smerrors.RangeResolutionError
		if errors.As(err, &rangeErr) {
			return nil, err
		}
		return nil, smerrors.NewRangeResolutionError(r.Start, r.End, err.Error())
	}
	if len(commits) == 0 {
		return nil, smerrors.NewRangeResolutionError(r.Start, r.End, "range contains no commits")
	}
	return commits, nil
}

func (b *Builder) resolveSkip(ctx context.Context, ids []string) map[string]bool {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		c, err := b.provider.Resolve(ctx, id)
		if err != nil {
			b.logger.Warn("ignoring unknown commit in skip list", slog.String("commit", id))
			continue
		}
		skip[c.ID] = true
	}
	return skip
}
