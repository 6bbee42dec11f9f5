package engine

import "time"

// EventKind names a point in a run that sinks can observe
type EventKind string

const (
	EventPlanned      EventKind = "planned"
	EventApplied      EventKind = "applied"
	EventAutoResolved EventKind = "auto-resolved"
	EventConflicted   EventKind = "conflicted"
	EventSkipped      EventKind = "skipped"
	EventFailed       EventKind = "failed"
	EventFinished     EventKind = "finished"
)

// Event is emitted by the runner as it moves through a plan
type Event struct {
	Time      time.Time
	RunID     string
	Kind      EventKind
	Commit    string
	Index     int
	Total     int
	Detail    string
	Simulated bool
}

// MultiSink fans an event out to several sinks
type MultiSink []EventSink

// Emit sends the event to every non-nil sink
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

type discardSink struct{}

func (discardSink) Emit(Event) {}
