// Package ui provides terminal UI components for live fetch progress and
// result status display.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/devseek/devseek/internal/model"
)

// Stage represents a search pipeline stage.
type Stage int

const (
	// StageClassify is the intent classification stage.
	StageClassify Stage = iota
	// StageRewrite is the per-source query rewrite stage.
	StageRewrite
	// StageFetch is the parallel source fetch stage.
	StageFetch
	// StageRank is the per-source relevance ranking stage.
	StageRank
	// StageMerge is the weighted merge stage.
	StageMerge
	// StageComplete indicates the search is complete.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageClassify:
		return "Classify"
	case StageRewrite:
		return "Rewrite"
	case StageFetch:
		return "Fetch"
	case StageRank:
		return "Rank"
	case StageMerge:
		return "Merge"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage icon for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageClassify:
		return "INTENT"
	case StageRewrite:
		return "REWRITE"
	case StageFetch:
		return "FETCH"
	case StageRank:
		return "RANK"
	case StageMerge:
		return "MERGE"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// SourceState tracks a single upstream source through the fetch stage.
type SourceState int

const (
	// SourcePending means the source has not been queried yet.
	SourcePending SourceState = iota
	// SourceActive means the fetch is in flight.
	SourceActive
	// SourceDone means the fetch returned records.
	SourceDone
	// SourceFailed means the fetch errored; the search continues without it.
	SourceFailed
)

// ProgressEvent represents a progress update. Stage-level events leave
// Source empty; per-source fetch updates set Source and State.
type ProgressEvent struct {
	Stage   Stage
	Source  model.Source
	State   SourceState
	Results int
	Elapsed time.Duration
	Message string
}

// ErrorEvent represents a source failure or warning during a search.
type ErrorEvent struct {
	Source model.Source
	Err    error
	IsWarn bool
}

// StageTimings tracks duration for each pipeline stage.
type StageTimings struct {
	Classify time.Duration // Intent classification
	Rewrite  time.Duration // Per-source query rewrite
	Fetch    time.Duration // Parallel upstream fetch
	Rank     time.Duration // Per-source relevance scoring
	Merge    time.Duration // Weighted merge
}

// CompletionStats contains final search statistics.
type CompletionStats struct {
	Results      int
	Sources      int // sources that returned records
	SourcesTotal int
	Intent       string
	Duration     time.Duration
	Errors       int
	Warnings     int
	Stages       StageTimings
}

// Renderer defines the interface for progress display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output       io.Writer
	ForcePlain   bool
	NoColor      bool
	SpinnerStyle string
	Query        string         // Query text to display in the header
	Sources      []model.Source // Sources to track; defaults to all three
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithSpinnerStyle sets the spinner style.
func WithSpinnerStyle(style string) ConfigOption {
	return func(c *Config) {
		c.SpinnerStyle = style
	}
}

// WithQuery sets the query text to display in the header.
func WithQuery(query string) ConfigOption {
	return func(c *Config) {
		c.Query = query
	}
}

// WithSources sets the sources to track during the fetch stage.
func WithSources(sources []model.Source) ConfigOption {
	return func(c *Config) {
		c.Sources = sources
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:       output,
		ForcePlain:   false,
		NoColor:      false,
		SpinnerStyle: "dots",
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// NewRenderer creates an appropriate renderer based on config and environment.
// It returns a TUI renderer for interactive terminals, and a plain text
// renderer for CI environments, pipes, or when --no-tui is specified.
func NewRenderer(cfg Config) Renderer {
	// Force plain mode if requested
	if cfg.ForcePlain {
		return NewPlainRenderer(cfg)
	}

	// Use plain mode for non-TTY outputs
	if !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg)
	}

	// Use plain mode in CI environments
	if DetectCI() {
		return NewPlainRenderer(cfg)
	}

	// Try TUI mode, fall back to plain on failure
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}

	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	// Check if it's a file that's a terminal
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
