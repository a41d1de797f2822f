package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// LabelCount is one labeled counter row in a stats section.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// StatusInfo contains aggregated query telemetry for display.
type StatusInfo struct {
	// Totals
	TotalQueries  int64     `json:"total_queries"`
	CacheHitRate  float64   `json:"cache_hit_rate"`  // 0.0-1.0
	ZeroResultPct float64   `json:"zero_result_pct"` // 0.0-100.0
	Since         time.Time `json:"since"`

	// Distributions, ordered for display
	Intents        []LabelCount `json:"intents"`
	Latency        []LabelCount `json:"latency"`
	TopTerms       []LabelCount `json:"top_terms"`
	SourceFailures []LabelCount `json:"source_failures,omitempty"`

	// Recent queries that returned nothing
	ZeroResultQueries []string `json:"zero_result_queries,omitempty"`

	// Persistence
	DBPath string `json:"db_path,omitempty"`
	DBSize int64  `json:"db_size,omitempty"`
}

// StatusRenderer displays query stats.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays stats to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	// Header
	header := "Query Stats"
	if !info.Since.IsZero() {
		header = fmt.Sprintf("Query Stats (since %s)", formatTime(info.Since))
	}
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render(header))

	// Totals
	_, _ = fmt.Fprintf(r.out, "  Queries:      %d\n", info.TotalQueries)
	_, _ = fmt.Fprintf(r.out, "  Cache hits:   %.1f%%\n", info.CacheHitRate*100)
	_, _ = fmt.Fprintf(r.out, "  Zero results: %.1f%%\n", info.ZeroResultPct)
	_, _ = fmt.Fprintln(r.out)

	// Intent distribution
	if len(info.Intents) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Intents:")
		for _, row := range info.Intents {
			_, _ = fmt.Fprintf(r.out, "    %-16s %d\n", row.Label, row.Count)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	// Latency histogram with a one-line chart over the buckets
	if len(info.Latency) > 0 {
		chart := r.styles.Chart.Render(DistributionChart(info.Latency))
		_, _ = fmt.Fprintf(r.out, "  Latency: %s\n", chart)
		for _, row := range info.Latency {
			_, _ = fmt.Fprintf(r.out, "    %-10s %d\n", row.Label, row.Count)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	// Top query terms
	if len(info.TopTerms) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Top terms:")
		for _, row := range info.TopTerms {
			_, _ = fmt.Fprintf(r.out, "    %-16s %d\n", row.Label, row.Count)
		}
		_, _ = fmt.Fprintln(r.out)
	}

	// Source failures
	if len(info.SourceFailures) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Source failures:")
		for _, row := range info.SourceFailures {
			_, _ = fmt.Fprintf(r.out, "    %-12s %s\n", row.Label, r.styles.Warning.Render(fmt.Sprintf("%d", row.Count)))
		}
		_, _ = fmt.Fprintln(r.out)
	}

	// Zero-result queries
	if len(info.ZeroResultQueries) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Recent zero-result queries:")
		for _, q := range info.ZeroResultQueries {
			_, _ = fmt.Fprintf(r.out, "    %s\n", r.styles.Dim.Render(q))
		}
		_, _ = fmt.Fprintln(r.out)
	}

	// Storage
	if info.DBPath != "" {
		_, _ = fmt.Fprintf(r.out, "  Storage: %s (%s)\n", FormatBytes(info.DBSize), info.DBPath)
	}

	return nil
}

// RenderJSON outputs stats as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// blockRunes are the bar heights for bucket charts, shortest to tallest.
var blockRunes = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// DistributionChart renders labeled counts as a compact block chart,
// one character per bucket, scaled so the largest count gets the tallest
// block. All-zero distributions render as a flat baseline.
func DistributionChart(rows []LabelCount) string {
	if len(rows) == 0 {
		return ""
	}

	var max int64
	for _, row := range rows {
		if row.Count > max {
			max = row.Count
		}
	}

	var sb strings.Builder
	sb.Grow(len(rows) * 3) // block runes are 3 bytes in UTF-8
	for _, row := range rows {
		idx := 0
		if max > 0 {
			idx = int(row.Count * int64(len(blockRunes)-1) / max)
		}
		sb.WriteRune(blockRunes[idx])
	}
	return sb.String()
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
