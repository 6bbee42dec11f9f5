package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"smartpick.dev/smartpick/testhelpers"
)

// historyScene builds main = R and feature = R, X(lib.c), A(a.c), B(lib.c, b.c)
func historyScene(t *testing.T) *testhelpers.Scene {
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

func TestIntegrationPickWorkflow(t *testing.T) {
	t.Parallel()

	t.Run("pick pulls in the dependency of the selected commit", func(t *testing.T) {
		t.Parallel()
		scene := historyScene(t)

		output, err := testhelpers.RunBinary(t, scene.Dir, "plan", scene.SHA(t, "B"), "--set", "auto_add_dependencies=true", "--verbose")
		require.NoError(t, err, output)
		require.Contains(t, output, "Plan: 2 commit(s)")
		require.Contains(t, output, "(added dependency)")
		require.Contains(t, output, "lib.c")

		output, err = testhelpers.RunBinary(t, scene.Dir, "pick", scene.SHA(t, "B"), "--set", "auto_add_dependencies=true", "--set", "show_progress_bar=false")
		require.NoError(t, err, output)
		require.Contains(t, output, "Done: 2 applied")

		testhelpers.ExpectSubjects(t, scene.Repo, []string{"B", "X", "R"})
		testhelpers.ExpectClean(t, scene.Repo)
	})

	t.Run("dry run leaves the branch untouched", func(t *testing.T) {
		t.Parallel()
		testhelpers.RequireGitVersion(t, 2, 40)
		scene := historyScene(t)
		head, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)

		output, err := testhelpers.RunBinary(t, scene.Dir, "pick", scene.SHA(t, "X")+".."+scene.SHA(t, "B"), "--dry-run")
		require.NoError(t, err, output)
		require.Contains(t, output, "Dry run: 3 applied")

		after, err := scene.Repo.GetRevision("HEAD")
		require.NoError(t, err)
		require.Equal(t, head, after)
	})

	t.Run("rejects an unknown commit", func(t *testing.T) {
		t.Parallel()
		scene := historyScene(t)

		output, err := testhelpers.RunBinary(t, scene.Dir, "pick", "does-not-exist")
		require.Error(t, err)
		require.Contains(t, output, "does-not-exist")
	})
}

func TestIntegrationConflictWorkflow(t *testing.T) {
	t.Parallel()

	conflictScene := func(t *testing.T) *testhelpers.Scene {
		t.Helper()
		return testhelpers.NewScene(t, func(s *testhelpers.Scene) error {
			if err := s.Commit("base", map[string]string{"notes.txt": "one\n"}); err != nil {
				return err
			}
			if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
				return err
			}
			if err := s.Commit("theirs", map[string]string{"notes.txt": "theirs\n"}); err != nil {
				return err
			}
			if err := s.Repo.CheckoutBranch("main"); err != nil {
				return err
			}
			return s.Commit("ours", map[string]string{"notes.txt": "ours\n"})
		})
	}

	t.Run("pause, list, resolve and resume", func(t *testing.T) {
		t.Parallel()
		scene := conflictScene(t)

		output, err := testhelpers.RunBinary(t, scene.Dir, "pick", scene.SHA(t, "theirs"), "--session", "run1", "--set", "show_progress_bar=false")
		require.NoError(t, err, output)
		require.Contains(t, output, "Stopped at")
		require.Contains(t, output, "smartpick resume run1")
		require.True(t, scene.Repo.CherryPickInProgress())

		output, err = testhelpers.RunBinary(t, scene.Dir, "sessions")
		require.NoError(t, err, output)
		require.Contains(t, output, "run1")
		require.Contains(t, output, "0/1 done")

		require.NoError(t, scene.Repo.WriteFile("notes.txt", "resolved\n"))
		output, err = testhelpers.RunBinary(t, scene.Dir, "resume")
		require.NoError(t, err, output)
		require.Contains(t, output, "Done: 1 applied")

		content, err := scene.Repo.ReadFile("notes.txt")
		require.NoError(t, err)
		require.Equal(t, "resolved\n", content)

		output, err = testhelpers.RunBinary(t, scene.Dir, "sessions")
		require.NoError(t, err, output)
		require.Contains(t, output, "No stored runs.")
	})

	t.Run("abort rolls back the open pick", func(t *testing.T) {
		t.Parallel()
		scene := conflictScene(t)

		output, err := testhelpers.RunBinary(t, scene.Dir, "pick", scene.SHA(t, "theirs"), "--session", "run2", "--set", "show_progress_bar=false")
		require.NoError(t, err, output)

		output, err = testhelpers.RunBinary(t, scene.Dir, "abort", "run2", "--force")
		require.NoError(t, err, output)
		testhelpers.ExpectClean(t, scene.Repo)
		testhelpers.ExpectSubjects(t, scene.Repo, []string{"ours", "base"})

		content, err := scene.Repo.ReadFile("notes.txt")
		require.NoError(t, err)
		require.Equal(t, "ours\n", content)

		output, err = testhelpers.RunBinary(t, scene.Dir, "resume", "run2")
		require.Error(t, err)
		require.Contains(t, output, "run2")
	})
}

func TestIntegrationConfig(t *testing.T) {
	t.Parallel()
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)

	output, err := testhelpers.RunBinary(t, scene.Dir, "config", "get", "max_search_depth")
	require.NoError(t, err, output)
	require.Equal(t, "100", output)

	output, err = testhelpers.RunBinary(t, scene.Dir, "config", "set", "max_search_depth", "12")
	require.NoError(t, err, output)

	output, err = testhelpers.RunBinary(t, scene.Dir, "config")
	require.NoError(t, err, output)
	require.Contains(t, output, "max_search_depth = 12")

	output, err = testhelpers.RunBinary(t, scene.Dir, "config", "set", "colour", "red")
	require.Error(t, err)
	require.Contains(t, output, "unknown config key")

	output, err = testhelpers.RunBinary(t, scene.Dir, "--version")
	require.NoError(t, err, output)
	require.Contains(t, output, "dev")
}
