// Package profiler - Per-stage timing aggregation for pipeline runs.
package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Timings aggregates stage durations across files. It is safe for concurrent
// use by many pipeline runs.
type Timings struct {
	mu     sync.Mutex
	stages map[string]*tracker
	order  []string
}

// tracker tracks timing statistics for one stage.
type tracker struct {
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

// StageTiming is a snapshot of one stage's statistics.
type StageTiming struct {
	Stage string        `json:"stage"`
	Count int64         `json:"count"`
	Total time.Duration `json:"total"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
}

// NewTimings creates an empty aggregator.
func NewTimings() *Timings {
	return &Timings{stages: make(map[string]*tracker)}
}

// Start begins timing a stage.
//
// Arguments:
// - stage: The name of the stage to track
//
// Returns:
// - A function to call when the stage completes
func (t *Timings) Start(stage string) func() {
	if t == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		t.Record(stage, time.Since(start))
	}
}

// Record adds one duration for a stage. A nil Timings discards it.
func (t *Timings) Record(stage string, d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	tr, exists := t.stages[stage]
	if !exists {
		tr = &tracker{min: d, max: d}
		t.stages[stage] = tr
		t.order = append(t.order, stage)
	}

	tr.count++
	tr.total += d
	if d < tr.min {
		tr.min = d
	}
	if d > tr.max {
		tr.max = d
	}
}

// Snapshot returns the statistics of every stage in first-recorded order.
func (t *Timings) Snapshot() []StageTiming {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]StageTiming, 0, len(t.order))
	for _, name := range t.order {
		tr := t.stages[name]
		out = append(out, StageTiming{
			Stage: name,
			Count: tr.count,
			Total: tr.total,
			Min:   tr.min,
			Max:   tr.max,
			Mean:  tr.total / time.Duration(tr.count),
		})
	}
	return out
}

// Slowest returns the stage with the largest total time.
func (t *Timings) Slowest() (StageTiming, bool) {
	snap := t.Snapshot()
	if len(snap) == 0 {
		return StageTiming{}, false
	}
	sort.SliceStable(snap, func(i, j int) bool { return snap[i].Total > snap[j].Total })
	return snap[0], true
}

// WriteReport prints one line per stage.
func (t *Timings) WriteReport(w io.Writer) error {
	for _, s := range t.Snapshot() {
		_, err := fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
			s.Stage,
			s.Mean.Truncate(time.Microsecond),
			s.Min.Truncate(time.Microsecond),
			s.Max.Truncate(time.Microsecond),
			s.Count)
		if err != nil {
			return err
		}
	}
	return nil
}
