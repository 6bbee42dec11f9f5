package engine

// Commit is an immutable snapshot of a commit as reported by a MetadataProvider
type Commit struct {
	ID      string   `json:"id"`
	Parents []string `json:"parents,omitempty"`
	Files   []string `json:"files,omitempty"`
	// Rank orders commits in ancestry: every parent has a strictly lower rank than its children.
	Rank    int    `json:"rank"`
	Subject string `json:"subject,omitempty"`
}

// ShortID returns an abbreviated commit id for display
func (c *Commit) ShortID() string {
	return shortID(c.ID)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// EdgeReason explains why a dependency edge exists
type EdgeReason string

const (
	// EdgeFileOverlap means the dependent modifies a file last touched by the prerequisite
	EdgeFileOverlap EdgeReason = "file-overlap"
	// EdgeExplicitRange means both commits fall inside one requested range
	EdgeExplicitRange EdgeReason = "explicit-range"
)

// Edge is a "must be applied before" constraint: From precedes To
type Edge struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Reason EdgeReason `json:"reason"`
	File   string     `json:"file,omitempty"`
}

// MissingDependency records a prerequisite that was found but not added to the graph
type MissingDependency struct {
	Commit  string `json:"commit"`
	Missing string `json:"missing"`
	File    string `json:"file"`
}

// Range is an inclusive commit range resolved through ancestry
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RequestItem is one argument of a request: a single commit or a range
type RequestItem struct {
	Commit string `json:"commit,omitempty"`
	Range  *Range `json:"range,omitempty"`
}

// CommitItems wraps commit ids as request items
func CommitItems(ids ...string) []RequestItem {
	items := make([]RequestItem, len(ids))
	for i, id := range ids {
		items[i] = RequestItem{Commit: id}
	}
	return items
}

// RangeItem wraps an inclusive START..END range as a request item
func RangeItem(start, end string) RequestItem {
	return RequestItem{Range: &Range{Start: start, End: end}}
}

// Request is the caller-supplied set of commits to apply. Items keep the
// order they were given in, across commits and ranges alike.
type Request struct {
	Items []RequestItem `json:"items,omitempty"`
	Skip  []string      `json:"skip,omitempty"`
}

// IsEmpty reports whether the request names nothing to apply
func (r Request) IsEmpty() bool {
	return len(r.Items) == 0
}

// Options are the configuration values that influence planning and conflict handling
type Options struct {
	MaxSearchDepth      int  `json:"maxSearchDepth"`
	AutoAddDependencies bool `json:"autoAddDependencies"`
	RenameThreshold     int  `json:"renameThreshold"`
}

// PlannedCommit is one position in a Plan
type PlannedCommit struct {
	ID       string              `json:"id"`
	Subject  string              `json:"subject,omitempty"`
	Rank     int                 `json:"rank"`
	Implicit bool                `json:"implicit,omitempty"`
	Warnings []MissingDependency `json:"warnings,omitempty"`
}

// Plan is the deterministic application order produced once per run
type Plan struct {
	Request     Request         `json:"request"`
	Options     Options         `json:"options"`
	Commits     []PlannedCommit `json:"commits"`
	Edges       []Edge          `json:"edges,omitempty"`
	Fingerprint string          `json:"fingerprint"`
}

// IDs returns the commit ids in plan order
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.Commits))
	for i, c := range p.Commits {
		ids[i] = c.ID
	}
	return ids
}

// Warnings returns every missing-dependency warning in plan order
func (p *Plan) Warnings() []MissingDependency {
	var out []MissingDependency
	for _, c := range p.Commits {
		out = append(out, c.Warnings...)
	}
	return out
}

// Mode selects how the scheduler reacts to conflicts
type Mode string

const (
	// ModeInteractive stops on the first conflict that needs a human
	ModeInteractive Mode = "interactive"
	// ModeAuto never pauses: unresolvable commits are skipped
	ModeAuto Mode = "auto"
	// ModeDryRun simulates every step without touching the working tree
	ModeDryRun Mode = "dry-run"
)

// Status is the per-commit progress state inside a Session
type Status string

const (
	StatusPending    Status = "pending"
	StatusApplied    Status = "applied"
	StatusSkipped    Status = "skipped"
	StatusConflicted Status = "conflicted"
	StatusFailed     Status = "failed"
)

// IsDone reports whether the scheduler moves past a commit in this status
func (s Status) IsDone() bool {
	return s == StatusApplied || s == StatusSkipped
}

// ConflictKind classifies a single conflicted file
type ConflictKind string

const (
	ConflictContent      ConflictKind = "content"
	ConflictRename       ConflictKind = "rename"
	ConflictDeleteModify ConflictKind = "delete-modify"
	ConflictBinary       ConflictKind = "binary"
)

// Verdict is the outcome of conflict resolution for a file or a whole commit
type Verdict string

const (
	VerdictAutoResolved Verdict = "auto-resolved"
	VerdictNeedsManual  Verdict = "needs-manual"
	VerdictUnresolved   Verdict = "unresolved"
)

// FileConflict is the classification and verdict for one conflicted path
type FileConflict struct {
	Path       string       `json:"path"`
	Kind       ConflictKind `json:"kind"`
	Verdict    Verdict      `json:"verdict"`
	RenamedTo  string       `json:"renamedTo,omitempty"`
	Similarity int          `json:"similarity,omitempty"`
}

// ConflictReport is produced for every apply attempt that reported conflicts
type ConflictReport struct {
	Commit  string         `json:"commit"`
	Files   []FileConflict `json:"files"`
	Verdict Verdict        `json:"verdict"`
}
