// Package stats records run events to a CSV file for later analysis.
package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"smartpick.dev/smartpick/internal/engine"
)

var header = []string{"time", "run", "commit", "event", "detail"}

// Path returns the stats file for a .git directory
func Path(gitDir string) string {
	return filepath.Join(gitDir, "smartpick", "stats.csv")
}

// Record is one row of the stats file
type Record struct {
	Time   time.Time
	RunID  string
	Commit string
	Kind   engine.EventKind
	Detail string
}

// Recorder is an engine.EventSink that appends every event to a CSV file.
// Write failures are logged and dropped so they never stop a run.
type Recorder struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewRecorder creates a recorder writing to path
func NewRecorder(path string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Recorder{path: path, logger: logger}
}

// Emit implements engine.EventSink
func (r *Recorder) Emit(e engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.append(e); err != nil {
		r.logger.Warn("failed to record stats", slog.String("path", r.path), slog.Any("error", err))
	}
}

func (r *Recorder) append(e engine.Event) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		_ = w.Write(header)
	}
	_ = w.Write([]string{e.Time.UTC().Format(time.RFC3339), e.RunID, e.Commit, string(e.Kind), e.Detail})
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read loads every record from path. A missing file has no records.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open stats: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(header)
	var records []Record
	for line := 0; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read stats: %w", err)
		}
		if line == 0 && slices.Equal(row, header) {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("bad time on stats line %d: %w", line+1, err)
		}
		records = append(records, Record{Time: ts, RunID: row[1], Commit: row[2], Kind: engine.EventKind(row[3]), Detail: row[4]})
	}
}

// Summary counts events across runs
type Summary struct {
	Runs   int
	Counts map[engine.EventKind]int
}

// Summarize tallies records by event kind and distinct run
func Summarize(records []Record) Summary {
	s := Summary{Counts: map[engine.EventKind]int{}}
	runs := map[string]bool{}
	for _, r := range records {
		s.Counts[r.Kind]++
		runs[r.RunID] = true
	}
	s.Runs = len(runs)
	return s
}
