package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
	"smartpick.dev/smartpick/internal/session"
	"smartpick.dev/smartpick/internal/utils"
)

func newSession(runID string) *engine.Session {
	plan := &engine.Plan{
		Request:     engine.Request{Items: engine.CommitItems("aaa", "bbb")},
		Options:     engine.Options{MaxSearchDepth: 100, RenameThreshold: 50},
		Commits:     []engine.PlannedCommit{{ID: "aaa", Rank: 1}, {ID: "bbb", Rank: 2}},
		Fingerprint: "f00d",
	}
	return engine.NewSession(runID, plan, engine.ModeInteractive)
}

func TestFileStore(t *testing.T) {
	t.Run("round-trips a session", func(t *testing.T) {
		store := session.NewFileStore(t.TempDir())
		s := newSession("run-1")
		s.Entries[0].Status = engine.StatusApplied
		s.Entries[1].Status = engine.StatusConflicted
		s.Entries[1].Report = &engine.ConflictReport{
			Commit:  "bbb",
			Verdict: engine.VerdictNeedsManual,
			Files:   []engine.FileConflict{{Path: "logo.png", Kind: engine.ConflictBinary, Verdict: engine.VerdictNeedsManual}},
		}
		s.Cursor = 1

		require.NoError(t, store.Save(s))
		loaded, err := store.Load("run-1")
		require.NoError(t, err)
		require.Equal(t, s.Entries, loaded.Entries)
		require.Equal(t, s.Plan.Fingerprint, loaded.Plan.Fingerprint)
		require.Equal(t, 1, loaded.Cursor)
		require.NoError(t, loaded.Verify(s.Plan))
	})

	t.Run("reports a missing session", func(t *testing.T) {
		store := session.NewFileStore(t.TempDir())
		_, err := store.Load("nope")
		require.ErrorIs(t, err, smerrors.ErrSessionNotFound)
	})

	t.Run("overwrites without leaving temp files", func(t *testing.T) {
		gitDir := t.TempDir()
		store := session.NewFileStore(gitDir)
		s := newSession("run-2")
		for i := 0; i < 3; i++ {
			s.Cursor = i
			require.NoError(t, store.Save(s))
		}

		entries, err := os.ReadDir(store.Dir())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "run-2.json", entries[0].Name())
		require.Equal(t, filepath.Join(gitDir, "smartpick", "sessions"), store.Dir())
	})

	t.Run("lists and deletes", func(t *testing.T) {
		store := session.NewFileStore(t.TempDir())
		ids, err := store.List()
		require.NoError(t, err)
		require.Empty(t, ids)

		require.NoError(t, store.Save(newSession("b-run")))
		require.NoError(t, store.Save(newSession("a-run")))
		ids, err = store.List()
		require.NoError(t, err)
		require.Equal(t, []string{"a-run", "b-run"}, ids)

		require.NoError(t, store.Delete("a-run"))
		require.NoError(t, store.Delete("a-run"))
		ids, err = store.List()
		require.NoError(t, err)
		require.Equal(t, []string{"b-run"}, ids)
	})

	t.Run("rejects ids that escape the directory", func(t *testing.T) {
		store := session.NewFileStore(t.TempDir())
		require.Error(t, store.Save(newSession("../evil")))
		_, err := store.Load("a/b")
		require.Error(t, err)
	})

	t.Run("surfaces corrupt files", func(t *testing.T) {
		store := session.NewFileStore(t.TempDir())
		require.NoError(t, utils.WriteFileAtomic(filepath.Join(store.Dir(), "bad.json"), []byte("{"), 0o644))
		_, err := store.Load("bad")
		require.Error(t, err)
		require.NotErrorIs(t, err, smerrors.ErrSessionNotFound)
	})
}
