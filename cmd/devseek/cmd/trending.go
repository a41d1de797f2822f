package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/devseek/devseek/internal/engine"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/logging"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/output"
)

// trendingOptions holds CLI flags for trending.
type trendingOptions struct {
	format string // "text", "json"
}

func newTrendingCmd() *cobra.Command {
	var opts trendingOptions

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show what is trending across all sources",
		Long: `Show currently popular repositories, models, and discussions.

No query is needed; each source is asked for its own notion of
"trending right now" and the three lists are shown side by side.

Examples:
  devseek trending
  devseek trending --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrending(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runTrending(ctx context.Context, cmd *cobra.Command, opts trendingOptions) error {
	logger := slog.Default()
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.WriteToStderr = false
		if fileLogger, cleanup, err := logging.Setup(logCfg); err == nil {
			defer cleanup()
			logger = fileLogger
		}
	}

	logger.Info("trending_started", slog.String("format", opts.format))

	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (expected text or json)", opts.format)
	}

	cfg := loadConfig(logger)
	pl, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	resp, err := pl.engine.Trending(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrTrendingUnavailable) {
			return errors.New("trending is unavailable: every source failed")
		}
		return fmt.Errorf("trending failed: %w", err)
	}

	logger.Info("trending_complete",
		slog.Int("repos", len(resp.Repos)),
		slog.Int("models", len(resp.Cards)),
		slog.Int("threads", len(resp.Threads)),
		slog.Bool("cached", resp.Cached))

	switch opts.format {
	case "json":
		return formatTrendingJSON(cmd, resp)
	default:
		return formatTrendingText(output.New(cmd.OutOrStdout()), resp)
	}
}

// formatTrendingText outputs the three trending lists section by section.
func formatTrendingText(out *output.Writer, resp *engine.TrendingResponse) error {
	suffix := ""
	if resp.Cached {
		suffix = " (cached)"
	}
	out.Statusf("📈", "Trending now%s:", suffix)
	out.Newline()

	if len(resp.Repos) > 0 {
		out.Status("", "Repositories:")
		for i, r := range resp.Repos {
			out.Statusf("", "%d. %s (%s)", i+1, r.Title, recordSummary(model.CodeRecord(r)))
			out.Status("", "   "+r.URL)
			if r.Description != "" {
				out.Status("", "   "+r.Description)
			}
		}
		out.Newline()
	}

	if len(resp.Cards) > 0 {
		out.Status("", "Models:")
		for i, c := range resp.Cards {
			out.Statusf("", "%d. %s (%s)", i+1, c.Title, recordSummary(model.ModelRecord(c)))
			out.Status("", "   "+c.URL)
		}
		out.Newline()
	}

	if len(resp.Threads) > 0 {
		out.Status("", "Discussions:")
		for i, d := range resp.Threads {
			out.Statusf("", "%d. %s (%s)", i+1, d.Title, recordSummary(model.DiscussionRecord(d)))
			out.Status("", "   "+d.URL)
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

// formatTrendingJSON outputs the trending snapshot in JSON format.
func formatTrendingJSON(cmd *cobra.Command, resp *engine.TrendingResponse) error {
	type jsonRepo struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description,omitempty"`
		Stars       int    `json:"stars"`
		Language    string `json:"language,omitempty"`
		Status      string `json:"status,omitempty"`
	}
	type jsonModel struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description,omitempty"`
		Downloads   int    `json:"downloads"`
		Likes       int    `json:"likes"`
		PipelineTag string `json:"pipeline_tag,omitempty"`
	}
	type jsonThread struct {
		Title    string `json:"title"`
		URL      string `json:"url"`
		Section  string `json:"section,omitempty"`
		Votes    int    `json:"votes"`
		Comments int    `json:"comments"`
	}
	type jsonResponse struct {
		Repos       []jsonRepo   `json:"repos"`
		Models      []jsonModel  `json:"models"`
		Discussions []jsonThread `json:"discussions"`
		Synthesis   string       `json:"synthesis,omitempty"`
		Errors      []string     `json:"errors,omitempty"`
		Cached      bool         `json:"cached"`
		DurationMS  int64        `json:"duration_ms"`
		Timestamp   time.Time    `json:"timestamp"`
	}

	repos := make([]jsonRepo, 0, len(resp.Repos))
	for _, r := range resp.Repos {
		repos = append(repos, jsonRepo{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Stars:       r.Stars,
			Language:    r.Language,
			Status:      string(r.Lifecycle),
		})
	}
	models := make([]jsonModel, 0, len(resp.Cards))
	for _, c := range resp.Cards {
		models = append(models, jsonModel{
			Title:       c.Title,
			URL:         c.URL,
			Description: c.Description,
			Downloads:   c.Downloads,
			Likes:       c.Likes,
			PipelineTag: c.PipelineTag,
		})
	}
	threads := make([]jsonThread, 0, len(resp.Threads))
	for _, d := range resp.Threads {
		threads = append(threads, jsonThread{
			Title:    d.Title,
			URL:      d.URL,
			Section:  d.Section,
			Votes:    d.Votes,
			Comments: d.Comments,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResponse{
		Repos:       repos,
		Models:      models,
		Discussions: threads,
		Synthesis:   resp.Synthesis,
		Errors:      fetch.Messages(resp.SourceErrors),
		Cached:      resp.Cached,
		DurationMS:  resp.Duration.Milliseconds(),
		Timestamp:   resp.Timestamp,
	})
}
