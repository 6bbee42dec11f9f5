package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories and replaces existing content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "a", "b", "state.json")

		require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o600))
		require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "two", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, WriteFileAtomic(filepath.Join(dir, "state.json"), []byte("{}"), 0o644))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "state.json", entries[0].Name())
	})

	t.Run("fails when the target is a directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		target := filepath.Join(dir, "taken")
		require.NoError(t, os.Mkdir(target, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, 0o600))

		require.Error(t, WriteFileAtomic(target, []byte("x"), 0o600))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1, "temp file must be removed")
	})
}
