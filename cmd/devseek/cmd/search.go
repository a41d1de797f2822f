package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devseek/devseek/internal/engine"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/logging"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/output"
	"github.com/devseek/devseek/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	sources []string // restrict to named sources
	format  string   // "text", "json"
	refresh bool     // bypass the response cache
	plain   bool     // force plain progress output
	noColor bool
}

// addSearchFlags registers the search flag set. The root command and the
// search subcommand share it so `devseek <query>` and
// `devseek search <query>` behave identically.
func addSearchFlags(cmd *cobra.Command, opts *searchOptions) {
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().StringSliceVarP(&opts.sources, "source", "s", nil, "Restrict to a source: code_host, model_hub, discussion (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "Bypass the cache and fetch fresh results")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable the live progress display")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search GitHub, Hugging Face, and Reddit at once",
		Long: `Search all three upstream sources with one query.

The query is classified by intent, rewritten per source, fetched
concurrently, ranked, and merged into a single weighted list with a
short verdict.

Examples:
  devseek search "rate limiting middleware"
  devseek search "sentence embedding model" --source model_hub
  devseek search "is htmx production ready" --limit 5
  devseek search "web scraping library" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	addSearchFlags(cmd, &opts)

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	// File logging for CLI observability; stderr stays clean for the
	// progress display. Debug mode already set up a default logger.
	logger := slog.Default()
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.WriteToStderr = false
		if fileLogger, cleanup, err := logging.Setup(logCfg); err == nil {
			defer cleanup()
			logger = fileLogger
		}
	}

	logger.Info("search_started",
		slog.String("query", query),
		slog.Int("limit", opts.limit),
		slog.String("format", opts.format))

	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", opts.format)
	}

	srcs, err := parseSourceNames(opts.sources)
	if err != nil {
		return err
	}

	cfg := loadConfig(logger)
	if len(srcs) == 0 {
		srcs = cfg.Sources.EnabledSources()
	}
	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	pl, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	// Progress goes to stderr so results stay pipeable on stdout. The
	// json format skips the renderer entirely.
	var renderer ui.Renderer
	if opts.format != "json" {
		renderer = ui.NewRenderer(ui.NewConfig(cmd.ErrOrStderr(),
			ui.WithQuery(query),
			ui.WithSources(srcs),
			ui.WithForcePlain(opts.plain),
			ui.WithNoColor(opts.noColor)))
		if err := renderer.Start(ctx); err != nil {
			logger.Warn("renderer_start_failed", slog.String("error", err.Error()))
			renderer = nil
		}
	}

	if renderer != nil {
		renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageClassify, Message: "Classifying intent"})
		renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageFetch, Message: "Querying sources"})
	}

	resp, err := pl.engine.Search(ctx, query, engine.Options{
		Sources:    srcs,
		MaxResults: limit,
		Refresh:    opts.refresh,
	})
	if err != nil {
		if renderer != nil {
			_ = renderer.Stop()
		}
		if errors.Is(err, engine.ErrEmptyQuery) {
			return errors.New("query must not be empty")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if renderer != nil {
		reportSearchProgress(renderer, srcs, resp)
		_ = renderer.Stop()
	}

	logger.Info("search_complete",
		slog.String("intent", string(resp.Intent)),
		slog.Int("results", len(resp.Results)),
		slog.Bool("cached", resp.Cached))

	switch opts.format {
	case "json":
		return formatSearchJSON(cmd, resp)
	default:
		return formatSearchText(output.New(cmd.OutOrStdout()), resp)
	}
}

// parseSourceNames converts --source flag values into source tags.
func parseSourceNames(names []string) ([]model.Source, error) {
	var srcs []model.Source
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		src := model.Source(trimmed)
		if !src.Valid() {
			return nil, fmt.Errorf("unknown source %q (expected code_host, model_hub, or discussion)", trimmed)
		}
		srcs = append(srcs, src)
	}
	return srcs, nil
}

// reportSearchProgress replays the outcome of a finished search through
// the renderer: a done line per surviving source, a warning per failed
// source, then the completion summary.
func reportSearchProgress(renderer ui.Renderer, srcs []model.Source, resp *engine.Response) {
	perSource := make(map[model.Source]int, len(srcs))
	for _, r := range resp.Results {
		perSource[r.Record.Source]++
	}

	failed := make(map[model.Source]bool, len(resp.SourceErrors))
	for _, se := range resp.SourceErrors {
		failed[se.Source] = true
		renderer.AddError(ui.ErrorEvent{Source: se.Source, Err: errors.New(se.Message), IsWarn: true})
	}

	contributing := 0
	for _, src := range srcs {
		if failed[src] {
			continue
		}
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageFetch,
			Source:  src,
			State:   ui.SourceDone,
			Results: perSource[src],
			Elapsed: resp.Duration,
		})
		if perSource[src] > 0 {
			contributing++
		}
	}

	renderer.Complete(ui.CompletionStats{
		Results:      len(resp.Results),
		Sources:      contributing,
		SourcesTotal: len(srcs),
		Intent:       string(resp.Intent),
		Duration:     resp.Duration,
		Warnings:     len(resp.SourceErrors),
	})
}

// formatSearchText outputs the merged ranking in human-readable form.
func formatSearchText(out *output.Writer, resp *engine.Response) error {
	if len(resp.Results) == 0 {
		out.Statusf("", "No results found for %q", resp.Query)
		for _, msg := range fetch.Messages(resp.SourceErrors) {
			out.Warning(msg)
		}
		return nil
	}

	suffix := ""
	if resp.Cached {
		suffix = " (cached)"
	}
	out.Statusf("🔍", "Found %d results for %q%s:", len(resp.Results), resp.Query, suffix)
	out.Newline()

	for _, r := range resp.Results {
		out.Statusf("", "%d. [%s] %s (score: %.2f)", r.Rank, r.Record.Source, r.Record.Title(), r.Score)
		if url := r.Record.URL(); url != "" {
			out.Status("", "   "+url)
		}
		if line := recordSummary(r.Record); line != "" {
			out.Status("", "   "+line)
		}
		out.Newline()
	}

	if resp.Synthesis != "" {
		out.Status("💡", resp.Synthesis)
	}
	for _, msg := range fetch.Messages(resp.SourceErrors) {
		out.Warning(msg)
	}
	return nil
}

// recordSummary returns the one-line detail for a record variant.
func recordSummary(rec model.SourceRecord) string {
	switch {
	case rec.Code != nil:
		parts := []string{fmt.Sprintf("%d stars", rec.Code.Stars)}
		if rec.Code.Language != "" {
			parts = append(parts, rec.Code.Language)
		}
		if rec.Code.Lifecycle != "" && rec.Code.Lifecycle != model.LifecycleUnknown {
			parts = append(parts, string(rec.Code.Lifecycle))
		}
		return strings.Join(parts, " | ")
	case rec.Model != nil:
		parts := []string{
			fmt.Sprintf("%d downloads", rec.Model.Downloads),
			fmt.Sprintf("%d likes", rec.Model.Likes),
		}
		if rec.Model.PipelineTag != "" {
			parts = append(parts, rec.Model.PipelineTag)
		}
		if rec.Model.HasDemo {
			parts = append(parts, "demo available")
		}
		return strings.Join(parts, " | ")
	case rec.Discussion != nil:
		parts := []string{
			fmt.Sprintf("%d votes", rec.Discussion.Votes),
			fmt.Sprintf("%d comments", rec.Discussion.Comments),
		}
		if rec.Discussion.Section != "" {
			parts = append(parts, "r/"+rec.Discussion.Section)
		}
		if rec.Discussion.Sentiment != "" && rec.Discussion.Sentiment != model.SentimentNeutral {
			parts = append(parts, string(rec.Discussion.Sentiment)+" sentiment")
		}
		if rec.Discussion.Warning {
			parts = append(parts, "negative signals in comments")
		}
		return strings.Join(parts, " | ")
	}
	return ""
}

// formatSearchJSON outputs the response in JSON format.
func formatSearchJSON(cmd *cobra.Command, resp *engine.Response) error {
	type jsonResult struct {
		Rank        int     `json:"rank"`
		Score       float64 `json:"score"`
		Source      string  `json:"source"`
		Title       string  `json:"title"`
		URL         string  `json:"url"`
		Description string  `json:"description,omitempty"`
		Stars       int     `json:"stars,omitempty"`
		Language    string  `json:"language,omitempty"`
		Status      string  `json:"status,omitempty"`
		Downloads   int     `json:"downloads,omitempty"`
		Likes       int     `json:"likes,omitempty"`
		PipelineTag string  `json:"pipeline_tag,omitempty"`
		Section     string  `json:"section,omitempty"`
		Votes       int     `json:"votes,omitempty"`
		Comments    int     `json:"comments,omitempty"`
		Sentiment   string  `json:"sentiment,omitempty"`
	}
	type jsonResponse struct {
		Query      string       `json:"query"`
		Intent     string       `json:"intent"`
		Results    []jsonResult `json:"results"`
		Synthesis  string       `json:"synthesis,omitempty"`
		Errors     []string     `json:"errors,omitempty"`
		Cached     bool         `json:"cached"`
		DurationMS int64        `json:"duration_ms"`
		Timestamp  time.Time    `json:"timestamp"`
	}

	results := make([]jsonResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		entry := jsonResult{
			Rank:   r.Rank,
			Score:  r.Score,
			Source: r.Record.Source.String(),
			Title:  r.Record.Title(),
			URL:    r.Record.URL(),
		}
		switch {
		case r.Record.Code != nil:
			entry.Description = r.Record.Code.Description
			entry.Stars = r.Record.Code.Stars
			entry.Language = r.Record.Code.Language
			entry.Status = string(r.Record.Code.Lifecycle)
		case r.Record.Model != nil:
			entry.Description = r.Record.Model.Description
			entry.Downloads = r.Record.Model.Downloads
			entry.Likes = r.Record.Model.Likes
			entry.PipelineTag = r.Record.Model.PipelineTag
		case r.Record.Discussion != nil:
			entry.Description = r.Record.Discussion.Body
			entry.Section = r.Record.Discussion.Section
			entry.Votes = r.Record.Discussion.Votes
			entry.Comments = r.Record.Discussion.Comments
			entry.Sentiment = string(r.Record.Discussion.Sentiment)
		}
		results = append(results, entry)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResponse{
		Query:      resp.Query,
		Intent:     string(resp.Intent),
		Results:    results,
		Synthesis:  resp.Synthesis,
		Errors:     fetch.Messages(resp.SourceErrors),
		Cached:     resp.Cached,
		DurationMS: resp.Duration.Milliseconds(),
		Timestamp:  resp.Timestamp,
	})
}
