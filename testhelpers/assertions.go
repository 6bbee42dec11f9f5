// Package testhelpers provides testing utilities for smartpick, including a
// scene system, Git repository helpers, and custom assertions.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. It is meant for setup code where errors
// are not expected.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectSubjects asserts the commit subjects reachable from HEAD, newest first.
func ExpectSubjects(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	subjects, err := repo.Subjects()
	require.NoError(t, err, "Failed to list commits")
	require.Equal(t, expected, subjects, "Commits do not match")
}

// ExpectSubjectsString asserts the subjects reachable from HEAD as a comma
// separated list, newest first.
func ExpectSubjectsString(t *testing.T, repo *GitRepo, expected string) {
	t.Helper()

	subjects, err := repo.Subjects()
	require.NoError(t, err, "Failed to list commits")
	require.Equal(t, expected, strings.Join(subjects, ", "), "Commits do not match")
}

// ExpectClean asserts that nothing is staged or modified and that no
// cherry-pick is in progress.
func ExpectClean(t *testing.T, repo *GitRepo) {
	t.Helper()

	status, err := repo.Status()
	require.NoError(t, err, "Failed to read status")
	require.Empty(t, status, "Working tree is not clean")
	require.False(t, repo.CherryPickInProgress(), "A cherry-pick is still in progress")
}
