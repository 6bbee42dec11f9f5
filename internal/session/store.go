// Package session persists run sessions under the repository's .git directory.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"smartpick.dev/smartpick/internal/engine"
	smerrors "smartpick.dev/smartpick/internal/errors"
	"smartpick.dev/smartpick/internal/utils"
)

const fileSuffix = ".json"

var validRunID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// FileStore keeps one JSON document per run. Writes go to a temp file in the
// same directory which is synced and renamed over the old copy, so a crash
// leaves either the previous or the new session on disk, never a torn one.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at <gitDir>/smartpick/sessions
func NewFileStore(gitDir string) *FileStore {
	return &FileStore{dir: filepath.Join(gitDir, "smartpick", "sessions")}
}

// Dir returns the directory sessions are stored in
func (f *FileStore) Dir() string {
	return f.dir
}

func (f *FileStore) path(runID string) (string, error) {
	if !validRunID.MatchString(runID) {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	return filepath.Join(f.dir, runID+fileSuffix), nil
}

// Save atomically replaces the stored copy of s
func (f *FileStore) Save(s *engine.Session) error {
	path, err := f.path(s.RunID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return utils.WriteFileAtomic(path, data, 0o644)
}

// Load reads the session for runID
func (f *FileStore) Load(runID string) (*engine.Session, error) {
	path, err := f.path(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, smerrors.NewSessionNotFoundError(runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s engine.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session %s is corrupt: %w", runID, err)
	}
	return &s, nil
}

// Delete removes the session for runID; deleting a missing session is not an error
func (f *FileStore) Delete(runID string) error {
	path, err := f.path(runID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns the ids of every stored session, sorted
func (f *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileSuffix))
	}
	slices.Sort(ids)
	return ids, nil
}
