package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
)

// Scene represents a test scene with a temporary directory and Git repository.
type Scene struct {
	Dir  string
	Repo *GitRepo
	// Commits maps the message of every commit made through the scene to its SHA
	Commits map[string]string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene with a temporary directory and Git repository.
// The directory is removed by the testing package unless DEBUG is set.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	var dir string
	if os.Getenv("DEBUG") != "" {
		tmp, err := os.MkdirTemp("", "smartpick-test-*")
		if err != nil {
			t.Fatalf("Failed to create temp dir: %v", err)
		}
		t.Logf("scene kept at %s", tmp)
		dir = tmp
	} else {
		dir = t.TempDir()
	}

	repo, err := NewGitRepo(dir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{Dir: dir, Repo: repo, Commits: map[string]string{}}
	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// Commit commits files with message and remembers the SHA under message.
func (s *Scene) Commit(message string, files map[string]string) error {
	sha, err := s.Repo.Commit(message, files)
	if err != nil {
		return err
	}
	s.Commits[message] = sha
	return nil
}

// SHA returns the commit recorded for message, failing the test when unknown.
func (s *Scene) SHA(t *testing.T, message string) string {
	t.Helper()
	sha, ok := s.Commits[message]
	if !ok {
		t.Fatalf("no commit %q in scene", message)
	}
	return sha
}

// WriteConfig writes the smartpick config file for the scene repository.
func (s *Scene) WriteConfig(content string) error {
	return os.WriteFile(filepath.Join(s.Dir, ".git", ".smartpick_config"), []byte(content), 0o600)
}

// BasicSceneSetup is a setup function that creates a basic scene with a single commit.
func BasicSceneSetup(scene *Scene) error {
	return scene.Commit("initial", map[string]string{"README.md": "# test\n"})
}

var gitVersionPattern = regexp.MustCompile(`(\d+)\.(\d+)`)

// RequireGitVersion skips the test when the installed git is older than major.minor.
func RequireGitVersion(t *testing.T, major, minor int) {
	t.Helper()
	out, err := exec.Command("git", "version").Output()
	if err != nil {
		t.Skipf("git not available: %v", err)
	}
	m := gitVersionPattern.FindStringSubmatch(string(out))
	if m == nil {
		t.Skipf("cannot parse git version %q", out)
	}
	gotMajor, _ := strconv.Atoi(m[1])
	gotMinor, _ := strconv.Atoi(m[2])
	if gotMajor < major || (gotMajor == major && gotMinor < minor) {
		t.Skip(fmt.Sprintf("needs git %d.%d, have %d.%d", major, minor, gotMajor, gotMinor))
	}
}
