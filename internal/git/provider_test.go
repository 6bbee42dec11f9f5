package git_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
	"smartpick.dev/smartpick/internal/git"
	"smartpick.dev/smartpick/testhelpers"
)

// featureScene builds main = R and feature = R, X(lib.c), A(a.c), B(lib.c, b.c)
// and leaves main checked out.
func featureScene(t *testing.T) *testhelpers.Scene {
	t.Helper()
	return testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Commit("R", map[string]string{"README.md": "# test\n"}); err != nil {
			return err
		}
		if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
			return err
		}
		if err := s.Commit("X", map[string]string{"lib.c": "int lib;\n"}); err != nil {
			return err
		}
		if err := s.Commit("A", map[string]string{"a.c": "int a;\n"}); err != nil {
			return err
		}
		if err := s.Commit("B", map[string]string{"lib.c": "int lib = 2;\n", "b.c": "int b;\n"}); err != nil {
			return err
		}
		return s.Repo.CheckoutBranch("main")
	})
}

// mergeScene builds main = R and feature = R, F1(lib.c), F1b(a.c) merged with
// side = F1, S1(s.c) through a merge commit M, then F2(lib.c). Main stays
// checked out.
func mergeScene(t *testing.T) *testhelpers.Scene {
	t.Helper()
	return testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
		if err := s.Commit("R", map[string]string{"README.md": "# test\n"}); err != nil {
			return err
		}
		if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
			return err
		}
		if err := s.Commit("F1", map[string]string{"lib.c": "int lib;\n"}); err != nil {
			return err
		}
		if err := s.Repo.CreateAndCheckoutBranch("side"); err != nil {
			return err
		}
		if err := s.Commit("S1", map[string]string{"s.c": "int s;\n"}); err != nil {
			return err
		}
		if err := s.Repo.CheckoutBranch("feature"); err != nil {
			return err
		}
		if err := s.Commit("F1b", map[string]string{"a.c": "int a;\n"}); err != nil {
			return err
		}
		if err := s.Repo.RunGitCommand("merge", "--no-ff", "-q", "-m", "M", "side"); err != nil {
			return err
		}
		merge, err := s.Repo.GetRevision("HEAD")
		if err != nil {
			return err
		}
		s.Commits["M"] = merge
		if err := s.Commit("F2", map[string]string{"lib.c": "int lib = 2;\n"}); err != nil {
			return err
		}
		return s.Repo.CheckoutBranch("main")
	})
}

func newProvider(t *testing.T, s *testhelpers.Scene) *git.Provider {
	t.Helper()
	repo, err := git.OpenRepository(s.Dir)
	require.NoError(t, err)
	provider, err := git.NewProvider(repo, "HEAD")
	require.NoError(t, err)
	return provider
}

func TestProviderResolve(t *testing.T) {
	ctx := context.Background()
	s := featureScene(t)
	provider := newProvider(t, s)

	t.Run("reports files, parents, rank and subject", func(t *testing.T) {
		b, err := provider.Resolve(ctx, s.SHA(t, "B"))
		require.NoError(t, err)
		require.Equal(t, s.SHA(t, "B"), b.ID)
		require.Equal(t, []string{s.SHA(t, "A")}, b.Parents)
		require.Equal(t, []string{"b.c", "lib.c"}, b.Files)
		require.Equal(t, 3, b.Rank)
		require.Equal(t, "B", b.Subject)
	})

	t.Run("a root commit lists every file", func(t *testing.T) {
		r, err := provider.Resolve(ctx, s.SHA(t, "R"))
		require.NoError(t, err)
		require.Equal(t, []string{"README.md"}, r.Files)
		require.Zero(t, r.Rank)
	})

	t.Run("accepts branch names and short hashes", func(t *testing.T) {
		byBranch, err := provider.Resolve(ctx, "feature")
		require.NoError(t, err)
		require.Equal(t, s.SHA(t, "B"), byBranch.ID)

		byShort, err := provider.Resolve(ctx, s.SHA(t, "X")[:10])
		require.NoError(t, err)
		require.Equal(t, s.SHA(t, "X"), byShort.ID)
	})

	t.Run("fails on unknown revisions", func(t *testing.T) {
		_, err := provider.Resolve(ctx, "does-not-exist")
		require.Error(t, err)
	})
}

func TestProviderLastModifier(t *testing.T) {
	ctx := context.Background()
	s := featureScene(t)
	provider := newProvider(t, s)

	b, err := provider.Resolve(ctx, s.SHA(t, "B"))
	require.NoError(t, err)

	t.Run("finds the nearest modifier", func(t *testing.T) {
		c, err := provider.LastModifier(ctx, "lib.c", b, 10)
		require.NoError(t, err)
		require.NotNil(t, c)
		require.Equal(t, s.SHA(t, "X"), c.ID)
	})

	t.Run("stops at the search depth", func(t *testing.T) {
		c, err := provider.LastModifier(ctx, "lib.c", b, 1)
		require.NoError(t, err)
		require.Nil(t, c)
	})

	t.Run("ignores modifiers already on the target", func(t *testing.T) {
		c, err := provider.LastModifier(ctx, "README.md", b, 10)
		require.NoError(t, err)
		require.Nil(t, c)
	})

	t.Run("returns nil for a file nobody touched", func(t *testing.T) {
		c, err := provider.LastModifier(ctx, "b.c", b, 10)
		require.NoError(t, err)
		require.Nil(t, c)
	})
}

func TestProviderAncestryRange(t *testing.T) {
	ctx := context.Background()
	s := featureScene(t)
	provider := newProvider(t, s)

	t.Run("lists the range oldest first", func(t *testing.T) {
		commits, err := provider.AncestryRange(ctx, s.SHA(t, "X"), s.SHA(t, "B"))
		require.NoError(t, err)
		var subjects []string
		for _, c := range commits {
			subjects = append(subjects, c.Subject)
		}
		require.Equal(t, []string{"X", "A", "B"}, subjects)
	})

	t.Run("a single commit range", func(t *testing.T) {
		commits, err := provider.AncestryRange(ctx, s.SHA(t, "A"), s.SHA(t, "A"))
		require.NoError(t, err)
		require.Len(t, commits, 1)
	})

	t.Run("rejects a start that does not precede the end", func(t *testing.T) {
		_, err := provider.AncestryRange(ctx, s.SHA(t, "B"), s.SHA(t, "X"))
		require.ErrorIs(t, err, smerrors.ErrRangeResolution)
	})

	t.Run("rejects unknown endpoints", func(t *testing.T) {
		_, err := provider.AncestryRange(ctx, "nope", s.SHA(t, "B"))
		require.ErrorIs(t, err, smerrors.ErrRangeResolution)
	})
}

func TestProviderPlanning(t *testing.T) {
	ctx := context.Background()
	s := featureScene(t)
	provider := newProvider(t, s)

	t.Run("adds the missing prerequisite", func(t *testing.T) {
		planner := engine.NewPlanner(provider, engine.Options{MaxSearchDepth: 100, AutoAddDependencies: true, RenameThreshold: 50}, nil)
		plan, err := planner.Plan(ctx, engine.Request{Items: engine.CommitItems(s.SHA(t, "B"), s.SHA(t, "A"))})
		require.NoError(t, err)
		require.Equal(t, []string{s.SHA(t, "X"), s.SHA(t, "A"), s.SHA(t, "B")}, plan.IDs())
		require.True(t, plan.Commits[0].Implicit)
	})

	t.Run("warns instead when auto-add is off", func(t *testing.T) {
		planner := engine.NewPlanner(provider, engine.Options{MaxSearchDepth: 100, RenameThreshold: 50}, nil)
		plan, err := planner.Plan(ctx, engine.Request{Items: engine.CommitItems(s.SHA(t, "B"))})
		require.NoError(t, err)
		require.Equal(t, []string{s.SHA(t, "B")}, plan.IDs())
		require.Equal(t, []engine.MissingDependency{{
			Commit:  s.SHA(t, "B"),
			Missing: s.SHA(t, "X"),
			File:    "lib.c",
		}}, plan.Warnings())
	})
}

func TestProviderMergeRange(t *testing.T) {
	ctx := context.Background()
	s := mergeScene(t)
	provider := newProvider(t, s)

	planner := engine.NewPlanner(provider, engine.Options{MaxSearchDepth: 100, RenameThreshold: 50}, nil)
	plan, err := planner.Plan(ctx, engine.Request{
		Items: []engine.RequestItem{engine.RangeItem(s.SHA(t, "F1"), s.SHA(t, "F2"))},
	})
	require.NoError(t, err)

	ids := plan.IDs()
	require.Len(t, ids, 5)
	require.Equal(t, s.SHA(t, "F1"), ids[0])
	require.ElementsMatch(t, []string{s.SHA(t, "F1b"), s.SHA(t, "S1")}, ids[1:3])
	require.Equal(t, s.SHA(t, "M"), ids[3])
	require.Equal(t, s.SHA(t, "F2"), ids[4])

	require.Contains(t, plan.Edges, engine.Edge{From: s.SHA(t, "S1"), To: s.SHA(t, "M"), Reason: engine.EdgeExplicitRange})
	require.Contains(t, plan.Edges, engine.Edge{From: s.SHA(t, "F1b"), To: s.SHA(t, "M"), Reason: engine.EdgeExplicitRange})
	require.Empty(t, plan.Warnings())
}

func TestProviderPatchEquivalence(t *testing.T) {
	ctx := context.Background()
	s := featureScene(t)
	// X reaches main under a new hash, the way an earlier pick leaves it.
	require.NoError(t, s.Repo.RunGitCommand("cherry-pick", s.SHA(t, "X")))
	provider := newProvider(t, s)

	b, err := provider.Resolve(ctx, s.SHA(t, "B"))
	require.NoError(t, err)

	t.Run("treats a picked copy as present", func(t *testing.T) {
		c, err := provider.LastModifier(ctx, "lib.c", b, 10)
		require.NoError(t, err)
		require.Nil(t, c)
	})

	t.Run("neither adds nor warns about the picked prerequisite", func(t *testing.T) {
		for _, autoAdd := range []bool{true, false} {
			planner := engine.NewPlanner(provider, engine.Options{MaxSearchDepth: 100, AutoAddDependencies: autoAdd, RenameThreshold: 50}, nil)
			plan, err := planner.Plan(ctx, engine.Request{Items: engine.CommitItems(s.SHA(t, "B"))})
			require.NoError(t, err)
			require.Equal(t, []string{s.SHA(t, "B")}, plan.IDs())
			require.Empty(t, plan.Warnings())
		}
	})

	t.Run("still reports a prerequisite whose change differs", func(t *testing.T) {
		other := featureScene(t)
		require.NoError(t, other.Repo.RunGitCommand("cherry-pick", other.SHA(t, "A")))
		p := newProvider(t, other)
		ob, err := p.Resolve(ctx, other.SHA(t, "B"))
		require.NoError(t, err)

		c, err := p.LastModifier(ctx, "lib.c", ob, 10)
		require.NoError(t, err)
		require.NotNil(t, c)
		require.Equal(t, other.SHA(t, "X"), c.ID)
	})
}
