package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
	stage   Stage
	errors  []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		noColor: cfg.NoColor,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	// Per-source events: print one line per completed source.
	// Failures are reported through AddError, active fetches stay quiet.
	if event.Source != "" {
		if event.State == SourceDone {
			_, _ = fmt.Fprintf(r.out, "[%s] %s: %d results (%s)\n",
				event.Stage.Icon(), event.Source, event.Results,
				event.Elapsed.Round(time.Millisecond))
		}
		return
	}

	if event.Message != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}

	if event.Source != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Source, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Search complete: %d results from %d/%d sources in %s",
		stats.Results, stats.Sources, stats.SourcesTotal, stats.Duration.Round(time.Millisecond))

	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}

	_, _ = fmt.Fprintln(r.out)

	if stats.Intent != "" {
		_, _ = fmt.Fprintf(r.out, "Intent: %s\n", stats.Intent)
	}

	// Show detailed stage breakdown if available
	if stats.Stages.Fetch > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "Stage Breakdown:")
		if stats.Stages.Classify > 0 {
			_, _ = fmt.Fprintf(r.out, "  Classify: %s\n", stats.Stages.Classify.Round(time.Millisecond))
		}
		if stats.Stages.Rewrite > 0 {
			_, _ = fmt.Fprintf(r.out, "  Rewrite:  %s\n", stats.Stages.Rewrite.Round(time.Millisecond))
		}
		_, _ = fmt.Fprintf(r.out, "  Fetch:    %s\n", stats.Stages.Fetch.Round(time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Rank:     %s\n", stats.Stages.Rank.Round(time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Merge:    %s\n", stats.Stages.Merge.Round(time.Millisecond))
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}
