package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"math"

	"github.com/emirpasic/gods/queues/priorityqueue"

	smerrors "smartpick.dev/smartpick/internal/errors"
)

// Schedule turns a graph into a Plan by topological sort. Commits with no
// ordering constraint between them are released by ascending rank, then by
// request order, so identical graphs always yield identical plans.
func Schedule(g *Graph) (*Plan, error) {
	indegree := make(map[string]int, len(g.order))
	successors := make(map[string][]string, len(g.order))
	for _, id := range g.order {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		indegree[e.To]++
		successors[e.From] = append(successors[e.From], e.To)
	}

	ready := priorityqueue.NewWith(func(a, b interface{}) int {
		ca, cb := g.commits[a.(string)], g.commits[b.(string)]
		if ca.Rank != cb.Rank {
			if ca.Rank < cb.Rank {
				return -1
			}
			return 1
		}
		return g.index[ca.ID] - g.index[cb.ID]
	})
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready.Enqueue(id)
		}
	}

	plan := &Plan{Commits: make([]PlannedCommit, 0, len(g.order))}
	for !ready.Empty() {
		v, _ := ready.Dequeue()
		id := v.(string)
		c := g.commits[id]
		plan.Commits = append(plan.Commits, PlannedCommit{
			ID:       c.ID,
			Subject:  c.Subject,
			Rank:     c.Rank,
			Implicit: g.IsImplicit(id),
			Warnings: g.Warnings(id),
		})
		for _, next := range successors[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready.Enqueue(next)
			}
		}
	}

	if len(plan.Commits) != len(g.order) {
		return nil, smerrors.NewGraphIntegrityError("", "", "dependency cycle detected")
	}
	plan.Edges = g.Edges()
	return plan, nil
}

// Fingerprint identifies the input a plan was built from: the request, the
// options that affect planning, and the resulting order.
func Fingerprint(req Request, opts Options, ids []string) string {
	payload := struct {
		Request Request  `json:"request"`
		Options Options  `json:"options"`
		Order   []string `json:"order"`
	}{req, opts, ids}
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Planner produces plans from requests
type Planner struct {
	provider MetadataProvider
	opts     Options
	logger   *slog.Logger
}

// NewPlanner creates a Planner
func NewPlanner(provider MetadataProvider, opts Options, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Planner{provider: provider, opts: opts, logger: logger}
}

// Options returns the options plans are built with
func (p *Planner) Options() Options {
	return p.opts
}

// Plan builds the dependency graph for a request and schedules it
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	g, err := NewBuilder(p.provider, p.opts, p.logger).Build(ctx, req)
	if err != nil {
		return nil, err
	}
	plan, err := Schedule(g)
	if err != nil {
		return nil, err
	}
	plan.Request = req
	plan.Options = p.opts
	plan.Fingerprint = Fingerprint(req, p.opts, plan.IDs())
	p.logger.Debug("planned run",
		slog.Int("commits", len(plan.Commits)),
		slog.Int("edges", len(plan.Edges)),
		slog.Int("warnings", len(plan.Warnings())))
	return plan, nil
}
