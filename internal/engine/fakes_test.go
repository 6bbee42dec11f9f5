package engine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
)

// fakeHistory is an in-memory commit graph used as a MetadataProvider
type fakeHistory struct {
	commits  map[string]*engine.Commit
	onTarget map[string]bool
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{commits: map[string]*engine.Commit{}, onTarget: map[string]bool{}}
}

// commit adds a commit whose rank is one above its highest parent
func (h *fakeHistory) commit(id string, parents []string, files ...string) *fakeHistory {
	rank := 0
	for _, p := range parents {
		if pr := h.commits[p].Rank + 1; pr > rank {
			rank = pr
		}
	}
	h.commits[id] = &engine.Commit{ID: id, Parents: parents, Files: files, Rank: rank, Subject: "commit " + id}
	return h
}

// chain adds linear commits, each a child of the previous one
func (h *fakeHistory) chain(links ...[]string) *fakeHistory {
	var prev []string
	for _, link := range links {
		h.commit(link[0], prev, link[1:]...)
		prev = []string{link[0]}
	}
	return h
}

func (h *fakeHistory) Resolve(_ context.Context, id string) (*engine.Commit, error) {
	c, ok := h.commits[id]
	if !ok {
		return nil, fmt.Errorf("unknown revision %s", id)
	}
	return c, nil
}

func (h *fakeHistory) AncestryRange(_ context.Context, start, end string) ([]*engine.Commit, error) {
	reach := h.ancestors(end)
	if !reach[start] {
		return nil, smerrors.NewRangeResolutionError(start, end, "start is not an ancestor of end")
	}
	before := h.ancestors(start)
	var out []*engine.Commit
	for id := range reach {
		if id == start || !before[id] {
			out = append(out, h.commits[id])
		}
	}
	slices.SortFunc(out, func(a, b *engine.Commit) int {
		if a.Rank != b.Rank {
			return a.Rank - b.Rank
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// ancestors returns id and everything reachable from it
func (h *fakeHistory) ancestors(id string) map[string]bool {
	seen := map[string]bool{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		c, ok := h.commits[cur]
		if !ok || seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, c.Parents...)
	}
	return seen
}

func (h *fakeHistory) LastModifier(_ context.Context, file string, before *engine.Commit, maxDepth int) (*engine.Commit, error) {
	frontier := before.Parents
	seen := map[string]bool{}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			if seen[id] {
				continue
			}
			seen[id] = true
			c := h.commits[id]
			if slices.Contains(c.Files, file) {
				if h.onTarget[id] {
					return nil, nil
				}
				return c, nil
			}
			next = append(next, c.Parents...)
		}
		frontier = next
	}
	return nil, nil
}

// fakeGateway scripts apply outcomes per commit
type fakeGateway struct {
	results   map[string]engine.ApplyResult
	fatal     map[string]error
	sides     map[string]*engine.FileSides
	continued engine.ApplyResult
	// closed makes Continue report that no apply is open
	closed bool
	head   string

	applied     []string
	simulated   []string
	resolved    [][]engine.Resolution
	staged      [][]engine.Resolution
	simResolved [][]engine.Resolution
	aborts      int
	continues   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		results:   map[string]engine.ApplyResult{},
		fatal:     map[string]error{},
		sides:     map[string]*engine.FileSides{},
		continued: engine.Success(),
		head:      "head-0",
	}
}

func (g *fakeGateway) mutations() int {
	return len(g.applied) + len(g.resolved) + len(g.staged) + g.aborts + g.continues
}

func (g *fakeGateway) outcome(c *engine.Commit) (engine.ApplyResult, error) {
	if err := g.fatal[c.ID]; err != nil {
		return engine.ApplyResult{}, err
	}
	if r, ok := g.results[c.ID]; ok {
		return r, nil
	}
	return engine.Success(), nil
}

func (g *fakeGateway) Apply(_ context.Context, c *engine.Commit) (engine.ApplyResult, error) {
	g.applied = append(g.applied, c.ID)
	return g.outcome(c)
}

func (g *fakeGateway) Simulate(_ context.Context, c *engine.Commit) (engine.ApplyResult, error) {
	g.simulated = append(g.simulated, c.ID)
	return g.outcome(c)
}

func (g *fakeGateway) Inspect(_ context.Context, path string) (*engine.FileSides, error) {
	s, ok := g.sides[path]
	if !ok {
		return nil, fmt.Errorf("no conflict recorded for %s", path)
	}
	return s, nil
}

func (g *fakeGateway) MarkResolved(_ context.Context, resolutions []engine.Resolution) error {
	g.resolved = append(g.resolved, resolutions)
	return nil
}

func (g *fakeGateway) SimulateResolved(_ context.Context, resolutions []engine.Resolution) error {
	g.simResolved = append(g.simResolved, resolutions)
	return nil
}

func (g *fakeGateway) StageResolved(_ context.Context, resolutions []engine.Resolution) error {
	g.staged = append(g.staged, resolutions)
	return nil
}

func (g *fakeGateway) Continue(_ context.Context) (engine.ApplyResult, error) {
	if g.closed {
		return engine.ApplyResult{}, smerrors.ErrNoCherryPickInProgress
	}
	g.continues++
	return g.continued, nil
}

func (g *fakeGateway) Head(_ context.Context) (string, error) {
	return g.head, nil
}

func (g *fakeGateway) Abort(_ context.Context) error {
	g.aborts++
	return nil
}

// memStore round-trips sessions through JSON like a file store would
type memStore struct {
	data      map[string][]byte
	saves     int
	failAfter int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Save(s *engine.Session) error {
	if m.failAfter > 0 && m.saves >= m.failAfter {
		return fmt.Errorf("simulated crash")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.data[s.RunID] = data
	m.saves++
	return nil
}

func (m *memStore) Load(runID string) (*engine.Session, error) {
	data, ok := m.data[runID]
	if !ok {
		return nil, smerrors.NewSessionNotFoundError(runID)
	}
	var s engine.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memStore) Delete(runID string) error {
	delete(m.data, runID)
	return nil
}

func (m *memStore) List() ([]string, error) {
	var ids []string
	for id := range m.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// recordingSink keeps every event it sees
type recordingSink struct {
	events []engine.Event
}

func (r *recordingSink) Emit(e engine.Event) {
	r.events = append(r.events, e)
}

func (r *recordingSink) kinds() []engine.EventKind {
	out := make([]engine.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func textSides(path, base, ours, theirs string) *engine.FileSides {
	return &engine.FileSides{
		Path:   path,
		Base:   engine.FileVersion{Content: []byte(base), Present: true},
		Ours:   engine.FileVersion{Content: []byte(ours), Present: true},
		Theirs: engine.FileVersion{Content: []byte(theirs), Present: true},
	}
}

func statuses(s *engine.Session) []engine.Status {
	out := make([]engine.Status, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Status
	}
	return out
}
