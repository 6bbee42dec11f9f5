// Package errors provides sentinel errors and custom error types for the smartpick application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common conditions
var (
	// ErrRangeResolution indicates that a requested commit range could not be resolved
	ErrRangeResolution = errors.New("range resolution failed")

	// ErrGraphIntegrity indicates inconsistent ancestry data from the metadata provider
	ErrGraphIntegrity = errors.New("dependency graph integrity violated")

	// ErrSessionMismatch indicates a persisted session was created from different input
	ErrSessionMismatch = errors.New("session does not match current input")

	// ErrSessionNotFound indicates that no persisted session exists for a run id
	ErrSessionNotFound = errors.New("session not found")

	// ErrApplyFatal indicates the version-control tool failed in a way that is not a conflict
	ErrApplyFatal = errors.New("fatal apply error")

	// ErrNoCherryPickInProgress indicates that no cherry-pick is currently open
	ErrNoCherryPickInProgress = errors.New("no cherry-pick in progress")
)

// RangeResolutionError represents a range whose endpoints are unknown or out of order
type RangeResolutionError struct {
	Start  string
	End    string
	Reason string
}

func (e *RangeResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve range %s..%s: %s", e.Start, e.End, e.Reason)
}

// Is returns true if the target error is ErrRangeResolution
func (e *RangeResolutionError) Is(target error) bool {
	return target == ErrRangeResolution
}

// NewRangeResolutionError creates a new RangeResolutionError
func NewRangeResolutionError(start, end, reason string) *RangeResolutionError {
	return &RangeResolutionError{Start: start, End: end, Reason: reason}
}

// GraphIntegrityError represents an edge that does not point forward in ancestry
type GraphIntegrityError struct {
	Prerequisite string
	Dependent    string
	Message      string
}

func (e *GraphIntegrityError) Error() string {
	if e.Prerequisite == "" && e.Dependent == "" {
		return fmt.Sprintf("dependency graph integrity violated: %s", e.Message)
	}
	return fmt.Sprintf("dependency graph integrity violated between %s and %s: %s", e.Prerequisite, e.Dependent, e.Message)
}

// Is returns true if the target error is ErrGraphIntegrity
func (e *GraphIntegrityError) Is(target error) bool {
	return target == ErrGraphIntegrity
}

// NewGraphIntegrityError creates a new GraphIntegrityError
func NewGraphIntegrityError(prerequisite, dependent, message string) *GraphIntegrityError {
	return &GraphIntegrityError{Prerequisite: prerequisite, Dependent: dependent, Message: message}
}

// SessionMismatchError represents a resume against a changed request or configuration
type SessionMismatchError struct {
	RunID    string
	Expected string
	Actual   string
}

func (e *SessionMismatchError) Error() string {
	return fmt.Sprintf("session %s was planned from different input (fingerprint %s, now %s); discard it or re-plan",
		e.RunID, short(e.Expected), short(e.Actual))
}

// Is returns true if the target error is ErrSessionMismatch
func (e *SessionMismatchError) Is(target error) bool {
	return target == ErrSessionMismatch
}

// NewSessionMismatchError creates a new SessionMismatchError
func NewSessionMismatchError(runID, expected, actual string) *SessionMismatchError {
	return &SessionMismatchError{RunID: runID, Expected: expected, Actual: actual}
}

// SessionNotFoundError represents a lookup for a run id that has no persisted session
type SessionNotFoundError struct {
	RunID string
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("no session found for run %s", e.RunID)
}

// Is returns true if the target error is ErrSessionNotFound
func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}

// NewSessionNotFoundError creates a new SessionNotFoundError
func NewSessionNotFoundError(runID string) *SessionNotFoundError {
	return &SessionNotFoundError{RunID: runID}
}

// ApplyFatalError represents a tool-level failure while applying a commit
type ApplyFatalError struct {
	Commit string
	Detail string
	Err    error
}

func (e *ApplyFatalError) Error() string {
	msg := fmt.Sprintf("failed to apply %s", short(e.Commit))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *ApplyFatalError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrApplyFatal
func (e *ApplyFatalError) Is(target error) bool {
	return target == ErrApplyFatal
}

// NewApplyFatalError creates a new ApplyFatalError
func NewApplyFatalError(commit, detail string, err error) *ApplyFatalError {
	return &ApplyFatalError{Commit: commit, Detail: detail, Err: err}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// Output returns stderr followed by stdout, which is where git reports failure details
func (e *GitCommandError) Output() string {
	return strings.TrimSpace(e.Stderr + "\n" + e.Stdout)
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
