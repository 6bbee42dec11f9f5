package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
)

// scenarioHistory is R -> X -> A -> B where B touches lib.c, last changed by X
func scenarioHistory() *fakeHistory {
	return newFakeHistory().chain(
		[]string{"R", "README"},
		[]string{"X", "lib.c"},
		[]string{"A", "a.c"},
		[]string{"B", "lib.c", "b.c"},
	)
}

func plan(t *testing.T, h *fakeHistory, opts engine.Options, req engine.Request) *engine.Plan {
	t.Helper()
	p, err := engine.NewPlanner(h, opts, nil).Plan(context.Background(), req)
	require.NoError(t, err)
	return p
}

func TestPlanDependencies(t *testing.T) {
	t.Run("adds an unrequested prerequisite when auto add is on", func(t *testing.T) {
		p := plan(t, scenarioHistory(),
			engine.Options{MaxSearchDepth: 10, AutoAddDependencies: true},
			engine.Request{Items: engine.CommitItems("A", "B")})

		require.Equal(t, []string{"X", "A", "B"}, p.IDs())
		require.True(t, p.Commits[0].Implicit)
		require.False(t, p.Commits[1].Implicit)
		require.Empty(t, p.Warnings())
		require.Contains(t, p.Edges, engine.Edge{From: "X", To: "B", Reason: engine.EdgeFileOverlap, File: "lib.c"})
	})

	t.Run("warns instead of adding when auto add is off", func(t *testing.T) {
		p := plan(t, scenarioHistory(),
			engine.Options{MaxSearchDepth: 10},
			engine.Request{Items: engine.CommitItems("A", "B")})

		require.Equal(t, []string{"A", "B"}, p.IDs())
		require.Empty(t, p.Commits[0].Warnings)
		require.Equal(t, []engine.MissingDependency{{Commit: "B", Missing: "X", File: "lib.c"}}, p.Commits[1].Warnings)
	})

	t.Run("stops searching when the depth budget runs out", func(t *testing.T) {
		p := plan(t, scenarioHistory(),
			engine.Options{MaxSearchDepth: 1, AutoAddDependencies: true},
			engine.Request{Items: engine.CommitItems("A", "B")})

		require.Equal(t, []string{"A", "B"}, p.IDs())
		require.Empty(t, p.Warnings())
	})

	t.Run("analyzes discovered prerequisites recursively", func(t *testing.T) {
		h := newFakeHistory().chain(
			[]string{"W", "lib.c"},
			[]string{"X", "lib.c"},
			[]string{"A", "a.c"},
			[]string{"B", "lib.c"},
		)
		p := plan(t, h, engine.Options{MaxSearchDepth: 10, AutoAddDependencies: true},
			engine.Request{Items: engine.CommitItems("B", "A")})

		require.Equal(t, []string{"W", "X", "A", "B"}, p.IDs())
	})

	t.Run("ignores modifiers already on the target branch", func(t *testing.T) {
		h := scenarioHistory()
		h.onTarget["X"] = true
		p := plan(t, h, engine.Options{MaxSearchDepth: 10, AutoAddDependencies: true},
			engine.Request{Items: engine.CommitItems("A", "B")})

		require.Equal(t, []string{"A", "B"}, p.IDs())
		require.Empty(t, p.Warnings())
	})

	t.Run("orders requested commits by rank regardless of request order", func(t *testing.T) {
		p := plan(t, scenarioHistory(), engine.Options{MaxSearchDepth: 10},
			engine.Request{Items: engine.CommitItems("B", "A", "B")})

		require.Equal(t, []string{"A", "B"}, p.IDs())
	})

	t.Run("breaks rank ties by request order", func(t *testing.T) {
		h := newFakeHistory().commit("R", nil, "README")
		h.commit("P", []string{"R"}, "p.txt")
		h.commit("Q", []string{"R"}, "q.txt")

		p := plan(t, h, engine.Options{MaxSearchDepth: 5}, engine.Request{Items: engine.CommitItems("Q", "P")})
		require.Equal(t, []string{"Q", "P"}, p.IDs())

		p = plan(t, h, engine.Options{MaxSearchDepth: 5}, engine.Request{Items: engine.CommitItems("P", "Q")})
		require.Equal(t, []string{"P", "Q"}, p.IDs())
	})
}

func TestPlanProperties(t *testing.T) {
	h := newFakeHistory().chain(
		[]string{"C1", "a", "b"},
		[]string{"C2", "b"},
		[]string{"C3", "c"},
		[]string{"C4", "a", "c"},
		[]string{"C5", "d"},
		[]string{"C6", "b", "d"},
	)
	opts := engine.Options{MaxSearchDepth: 10, AutoAddDependencies: true}
	req := engine.Request{Items: engine.CommitItems("C6", "C4", "C5")}

	t.Run("every prerequisite precedes its dependent", func(t *testing.T) {
		p := plan(t, h, opts, req)
		position := map[string]int{}
		for i, id := range p.IDs() {
			position[id] = i
		}
		require.NotEmpty(t, p.Edges)
		for _, e := range p.Edges {
			require.Less(t, position[e.From], position[e.To], "edge %s -> %s", e.From, e.To)
		}
	})

	t.Run("is deterministic across repeated calls", func(t *testing.T) {
		first := plan(t, h, opts, req)
		for i := 0; i < 5; i++ {
			again := plan(t, h, opts, req)
			require.Equal(t, first.IDs(), again.IDs())
			require.Equal(t, first.Fingerprint, again.Fingerprint)
		}
	})

	t.Run("fingerprint changes with options", func(t *testing.T) {
		a := plan(t, h, opts, req)
		b := plan(t, h, engine.Options{MaxSearchDepth: 9, AutoAddDependencies: true}, req)
		require.Equal(t, a.IDs(), b.IDs())
		require.NotEqual(t, a.Fingerprint, b.Fingerprint)
	})
}

func TestPlanRanges(t *testing.T) {
	t.Run("expands a range inclusively with explicit edges", func(t *testing.T) {
		p := plan(t, scenarioHistory(), engine.Options{MaxSearchDepth: 10},
			engine.Request{Items: []engine.RequestItem{engine.RangeItem("X", "B")}})

		require.Equal(t, []string{"X", "A", "B"}, p.IDs())
		require.Contains(t, p.Edges, engine.Edge{From: "X", To: "A", Reason: engine.EdgeExplicitRange})
		require.Contains(t, p.Edges, engine.Edge{From: "A", To: "B", Reason: engine.EdgeExplicitRange})
	})

	t.Run("drops skipped commits from a range", func(t *testing.T) {
		p := plan(t, scenarioHistory(), engine.Options{MaxSearchDepth: 10, AutoAddDependencies: true},
			engine.Request{Items: []engine.RequestItem{engine.RangeItem("R", "B")}, Skip: []string{"X", "nope"}})

		require.Equal(t, []string{"R", "A", "B"}, p.IDs())
		require.Equal(t, []engine.MissingDependency{{Commit: "B", Missing: "X", File: "lib.c"}}, p.Warnings())
	})

	t.Run("orders a merged side branch by parentage", func(t *testing.T) {
		h := newFakeHistory().chain(
			[]string{"R", "README"},
			[]string{"F1", "lib.c"},
			[]string{"F1b", "a.c"},
		)
		h.commit("S1", []string{"F1"}, "s.c")
		h.commit("M", []string{"F1b", "S1"})
		h.commit("F2", []string{"M"}, "lib.c")

		p := plan(t, h, engine.Options{MaxSearchDepth: 10},
			engine.Request{Items: []engine.RequestItem{engine.RangeItem("F1", "F2")}})

		require.Equal(t, []string{"F1", "F1b", "S1", "M", "F2"}, p.IDs())
		require.Contains(t, p.Edges, engine.Edge{From: "S1", To: "M", Reason: engine.EdgeExplicitRange})
		require.Contains(t, p.Edges, engine.Edge{From: "F1b", To: "M", Reason: engine.EdgeExplicitRange})
		require.NotContains(t, p.Edges, engine.Edge{From: "F1b", To: "S1", Reason: engine.EdgeExplicitRange})
	})

	t.Run("links range members across a skipped commit", func(t *testing.T) {
		p := plan(t, scenarioHistory(), engine.Options{MaxSearchDepth: 10},
			engine.Request{Items: []engine.RequestItem{engine.RangeItem("X", "B")}, Skip: []string{"A"}})

		require.Equal(t, []string{"X", "B"}, p.IDs())
		require.Contains(t, p.Edges, engine.Edge{From: "X", To: "B", Reason: engine.EdgeExplicitRange})
	})

	t.Run("keeps request order between ranges and single commits", func(t *testing.T) {
		h := newFakeHistory().chain(
			[]string{"R", "README"},
			[]string{"S", "s.c"},
			[]string{"E", "e.c"},
		)
		h.commit("C", []string{"R"}, "c.c")

		p := plan(t, h, engine.Options{MaxSearchDepth: 5},
			engine.Request{Items: []engine.RequestItem{engine.RangeItem("S", "E"), {Commit: "C"}}})
		require.Equal(t, []string{"S", "C", "E"}, p.IDs())

		p = plan(t, h, engine.Options{MaxSearchDepth: 5},
			engine.Request{Items: []engine.RequestItem{{Commit: "C"}, engine.RangeItem("S", "E")}})
		require.Equal(t, []string{"C", "S", "E"}, p.IDs())
	})

	t.Run("fails on an unknown endpoint", func(t *testing.T) {
		_, err := engine.NewPlanner(scenarioHistory(), engine.Options{MaxSearchDepth: 10}, nil).
			Plan(context.Background(), engine.Request{Items: []engine.RequestItem{engine.RangeItem("X", "missing")}})
		require.Error(t, err)
		require.True(t, errors.Is(err, smerrors.ErrRangeResolution))
	})

	t.Run("fails when the end precedes the start", func(t *testing.T) {
		_, err := engine.NewPlanner(scenarioHistory(), engine.Options{MaxSearchDepth: 10}, nil).
			Plan(context.Background(), engine.Request{Items: []engine.RequestItem{engine.RangeItem("B", "X")}})
		var rangeErr *smerrors.RangeResolutionError
		require.ErrorAs(t, err, &rangeErr)
		require.Contains(t, rangeErr.Reason, "precedes")
	})
}

func TestPlanIntegrity(t *testing.T) {
	t.Run("rejects ancestry that is not monotonic", func(t *testing.T) {
		h := scenarioHistory()
		h.commits["X"].Rank = 99

		_, err := engine.NewPlanner(h, engine.Options{MaxSearchDepth: 10, AutoAddDependencies: true}, nil).
			Plan(context.Background(), engine.Request{Items: engine.CommitItems("A", "B")})
		require.ErrorIs(t, err, smerrors.ErrGraphIntegrity)
	})

	t.Run("rejects a non-positive search depth", func(t *testing.T) {
		_, err := engine.NewPlanner(scenarioHistory(), engine.Options{}, nil).
			Plan(context.Background(), engine.Request{Items: engine.CommitItems("A")})
		require.Error(t, err)
	})
}
