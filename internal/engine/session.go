package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	smerrors "smartpick.dev/smartpick/internal/errors"
)

// Entry is the progress record for one planned commit
type Entry struct {
	ID     string          `json:"id"`
	Status Status          `json:"status"`
	Reason string          `json:"reason,omitempty"`
	Report *ConflictReport `json:"report,omitempty"`
	// Head is the commit HEAD was on when the run paused at this entry
	Head string `json:"head,omitempty"`
}

// Session is the durable, resumable state of one run. The runner owns it:
// other components return outcomes that the runner folds in.
type Session struct {
	RunID     string    `json:"runId"`
	Mode      Mode      `json:"mode"`
	Plan      *Plan     `json:"plan"`
	Cursor    int       `json:"cursor"`
	Entries   []Entry   `json:"entries"`
	Simulated bool      `json:"simulated,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// NewSession creates a session with every planned commit pending
func NewSession(runID string, plan *Plan, mode Mode) *Session {
	now := time.Now().UTC()
	s := &Session{
		RunID:     runID,
		Mode:      mode,
		Plan:      plan,
		Entries:   make([]Entry, len(plan.Commits)),
		Simulated: mode == ModeDryRun,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, c := range plan.Commits {
		s.Entries[i] = Entry{ID: c.ID, Status: StatusPending}
	}
	return s
}

// Verify checks that the session was planned from the same input as plan
func (s *Session) Verify(plan *Plan) error {
	if s.Plan == nil || s.Plan.Fingerprint != plan.Fingerprint {
		expected := ""
		if s.Plan != nil {
			expected = s.Plan.Fingerprint
		}
		return smerrors.NewSessionMismatchError(s.RunID, expected, plan.Fingerprint)
	}
	if len(s.Entries) != len(plan.Commits) {
		return fmt.Errorf("session %s is corrupt: %d entries for %d planned commits", s.RunID, len(s.Entries), len(plan.Commits))
	}
	return nil
}

// Done reports whether the cursor has moved past every commit
func (s *Session) Done() bool {
	return s.Cursor >= len(s.Entries)
}

// Count returns how many entries are in the given status
func (s *Session) Count(status Status) int {
	n := 0
	for _, e := range s.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// Clean reports whether the run finished with nothing conflicted, failed or pending
func (s *Session) Clean() bool {
	if !s.Done() {
		return false
	}
	for _, e := range s.Entries {
		if !e.Status.IsDone() {
			return false
		}
	}
	return true
}

// Problems returns every entry that did not end up applied, in plan order
func (s *Session) Problems() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if e.Status != StatusApplied {
			out = append(out, e)
		}
	}
	return out
}

// commit returns the planned commit for an entry index as a Commit value
func (s *Session) commit(i int) *Commit {
	pc := s.Plan.Commits[i]
	return &Commit{ID: pc.ID, Rank: pc.Rank, Subject: pc.Subject}
}

func (s *Session) set(i int, status Status, reason string, report *ConflictReport) {
	s.Entries[i].Status = status
	s.Entries[i].Reason = reason
	s.Entries[i].Report = report
	s.Entries[i].Head = ""
	s.UpdatedAt = time.Now().UTC()
}
