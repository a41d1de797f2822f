package ui

import (
	"sync"
	"time"

	"github.com/devseek/devseek/internal/model"
)

// SourceStatus is the display state of one upstream source.
type SourceStatus struct {
	Source  model.Source
	State   SourceState
	Results int
	Elapsed time.Duration
	Message string
}

// ProgressStats contains a snapshot of current progress.
type ProgressStats struct {
	Stage      Stage
	Sources    []SourceStatus
	Done       int // sources finished, success or failure
	Total      int
	Progress   float64
	Elapsed    time.Duration
	ErrorCount int
	WarnCount  int
}

// ProgressTracker manages pipeline and per-source fetch state.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	sources    []SourceStatus // fixed order, set at construction
	startTime  time.Time
	stageStart time.Time
	errors     []ErrorEvent
	warnings   []ErrorEvent
}

// NewProgressTracker creates a new progress tracker for the given sources.
// An empty slice tracks all three sources.
func NewProgressTracker(sources []model.Source) *ProgressTracker {
	if len(sources) == 0 {
		sources = model.Sources
	}

	rows := make([]SourceStatus, len(sources))
	for i, s := range sources {
		rows[i] = SourceStatus{Source: s, State: SourcePending}
	}

	now := time.Now()
	return &ProgressTracker{
		stage:      StageClassify,
		sources:    rows,
		startTime:  now,
		stageStart: now,
	}
}

// SetStage transitions to a new stage.
func (p *ProgressTracker) SetStage(stage Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.stageStart = time.Now()
}

// Apply routes a progress event: per-source events update the matching
// source row, stage-only events transition the stage.
func (p *ProgressTracker) Apply(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.Stage != p.stage {
		p.stage = event.Stage
		p.stageStart = time.Now()
	}

	if event.Source == "" {
		return
	}

	for i := range p.sources {
		if p.sources[i].Source != event.Source {
			continue
		}
		p.sources[i].State = event.State
		p.sources[i].Results = event.Results
		p.sources[i].Elapsed = event.Elapsed
		if event.Message != "" {
			p.sources[i].Message = event.Message
		}
		return
	}
}

// AddError records an error or warning. A source error also marks the
// matching source row failed so the display stays consistent.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings = append(p.warnings, event)
	} else {
		p.errors = append(p.errors, event)
	}

	if event.Source == "" {
		return
	}
	for i := range p.sources {
		if p.sources[i].Source == event.Source {
			p.sources[i].State = SourceFailed
			if event.Err != nil {
				p.sources[i].Message = event.Err.Error()
			}
			return
		}
	}
}

// Progress returns the fraction of sources finished (0.0-1.0).
func (p *ProgressTracker) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.sources) == 0 {
		return 0.0
	}
	return float64(p.doneLocked()) / float64(len(p.sources))
}

// Elapsed returns time since tracker creation.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return time.Since(p.startTime)
}

// Stats returns current statistics snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rows := make([]SourceStatus, len(p.sources))
	copy(rows, p.sources)

	done := p.doneLocked()
	progress := 0.0
	if len(p.sources) > 0 {
		progress = float64(done) / float64(len(p.sources))
	}

	return ProgressStats{
		Stage:      p.stage,
		Sources:    rows,
		Done:       done,
		Total:      len(p.sources),
		Progress:   progress,
		Elapsed:    time.Since(p.startTime),
		ErrorCount: len(p.errors),
		WarnCount:  len(p.warnings),
	}
}

// doneLocked counts finished sources. Caller holds the lock.
func (p *ProgressTracker) doneLocked() int {
	done := 0
	for _, s := range p.sources {
		if s.State == SourceDone || s.State == SourceFailed {
			done++
		}
	}
	return done
}

// Errors returns the list of recorded errors.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ErrorEvent, len(p.errors))
	copy(result, p.errors)
	return result
}

// Warnings returns the list of recorded warnings.
func (p *ProgressTracker) Warnings() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ErrorEvent, len(p.warnings))
	copy(result, p.warnings)
	return result
}
