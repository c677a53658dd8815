package telemetry

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Sink receives every recorded step. Implementations persist or forward it.
type Sink interface {
	WriteStep(StepStats) error
	WriteAgents([]AgentRow) error
	Close() error
}

// Recorder keeps the step series in memory and forwards each step to sinks.
// Sink failures are logged and remembered but never stop the simulation.
// Each step also passes through a bookmark detector.
// Reads are safe while the model goroutine records.
type Recorder struct {
	mu         sync.RWMutex
	series     []StepStats
	lastAgents []AgentRow
	sinks      []Sink
	err        error

	detector  *BookmarkDetector
	bookmarks []Bookmark
	perf      PerfStats
}

// BookmarkHistory is the number of steps the bookmark detector looks back.
const BookmarkHistory = 50

// NewRecorder creates a recorder forwarding to the given sinks.
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, detector: NewBookmarkDetector(BookmarkHistory)}
}

// AddSink attaches another sink.
func (r *Recorder) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Record appends a step. agents may be nil when per-agent rows are disabled.
func (r *Recorder) Record(stats StepStats, agents []AgentRow) {
	found := r.detector.Check(stats)
	for _, b := range found {
		b.LogBookmark()
	}

	r.mu.Lock()
	r.series = append(r.series, stats)
	if agents != nil {
		r.lastAgents = agents
	}
	r.bookmarks = append(r.bookmarks, found...)
	sinks := r.sinks
	r.mu.Unlock()

	for _, s := range sinks {
		if err := s.WriteStep(stats); err != nil {
			r.fail(err)
			continue
		}
		if agents != nil {
			if err := s.WriteAgents(agents); err != nil {
				r.fail(err)
			}
		}
	}
}

func (r *Recorder) fail(err error) {
	slog.Error("telemetry sink failed", "error", err)
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Series returns a copy of all recorded steps.
func (r *Recorder) Series() []StepStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.series)
}

// Since returns a copy of the steps recorded after the first n.
func (r *Recorder) Since(n int) []StepStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n >= len(r.series) {
		return nil
	}
	return slices.Clone(r.series[max(n, 0):])
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.series)
}

// Last returns the most recent step.
func (r *Recorder) Last() (StepStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.series) == 0 {
		return StepStats{}, false
	}
	return r.series[len(r.series)-1], true
}

// LastAgents returns the most recent per-agent rows.
func (r *Recorder) LastAgents() []AgentRow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.lastAgents)
}

// Bookmarks returns a copy of every bookmark detected so far.
func (r *Recorder) Bookmarks() []Bookmark {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.bookmarks)
}

// SetPerf publishes the latest step timing summary.
func (r *Recorder) SetPerf(p PerfStats) {
	r.mu.Lock()
	r.perf = p
	r.mu.Unlock()
}

// Perf returns the last published step timing summary.
func (r *Recorder) Perf() PerfStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perf
}

// Err returns the first sink error, if any.
func (r *Recorder) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Close closes every sink and returns the joined errors.
func (r *Recorder) Close() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
