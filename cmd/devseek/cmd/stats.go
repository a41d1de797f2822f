package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/devseek/devseek/internal/config"
	"github.com/devseek/devseek/internal/output"
	"github.com/devseek/devseek/internal/telemetry"
	"github.com/devseek/devseek/internal/ui"
)

// statsOptions holds CLI flags for stats.
type statsOptions struct {
	asJSON  bool
	noColor bool
	limit   int
	local   bool // skip the running server, read the database directly
}

func newStatsCmd() *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show query telemetry",
		Long: `Show aggregated query telemetry: intent distribution, top search
terms, zero-result queries, latency buckets, and upstream failures.

A running 'devseek serve' answers with its live counters, including
the cache hit rate. Without a server, stats fall back to the
persisted telemetry database, which carries the distributions but
not the per-process cache counters.

Examples:
  devseek stats
  devseek stats --json
  devseek stats --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Output stats as JSON")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Rows per list (top terms, zero-result queries)")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Read the telemetry database directly (bypass a running server)")

	return cmd
}

func runStats(cmd *cobra.Command, opts statsOptions) error {
	cfg := loadConfig(slog.Default())

	// Prefer the running server: its live snapshot carries counters the
	// database does not persist.
	if !opts.local {
		if info, err := fetchServerStats(cfg, opts.limit); err == nil {
			return renderStats(cmd, info, opts)
		}
	}

	path := cfg.Telemetry.DBPath
	if path == "" {
		return errors.New("telemetry persistence is disabled (telemetry.db_path is empty)")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		out := output.New(cmd.OutOrStdout())
		out.Status("", "No telemetry recorded yet.")
		out.Status("", "Stats accumulate while 'devseek serve' or 'devseek mcp' handle queries.")
		return nil
	}

	store, err := telemetry.OpenSQLiteMetricsStore(path)
	if err != nil {
		return fmt.Errorf("failed to open telemetry database: %w", err)
	}
	defer func() { _ = store.Close() }()

	info, err := collectStoredStats(store, path, opts.limit)
	if err != nil {
		return err
	}
	return renderStats(cmd, info, opts)
}

func renderStats(cmd *cobra.Command, info *ui.StatusInfo, opts statsOptions) error {
	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), opts.noColor)
	if opts.asJSON {
		return renderer.RenderJSON(*info)
	}
	return renderer.Render(*info)
}

// fetchServerStats asks a running server for its live metrics snapshot.
func fetchServerStats(cfg *config.Config, limit int) (*ui.StatusInfo, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + cfg.Server.Addr() + "/api/v1/stats")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	var snapshot telemetry.QueryMetricsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}

	info := snapshotToStatus(&snapshot, limit)
	info.DBPath = cfg.Telemetry.DBPath
	if fi, err := os.Stat(info.DBPath); err == nil {
		info.DBSize = fi.Size()
	}
	return info, nil
}

// snapshotToStatus converts a live metrics snapshot into the display shape.
func snapshotToStatus(s *telemetry.QueryMetricsSnapshot, limit int) *ui.StatusInfo {
	info := &ui.StatusInfo{
		TotalQueries:  s.TotalQueries,
		CacheHitRate:  s.CacheHitRate(),
		ZeroResultPct: s.ZeroResultPercentage(),
		Since:         s.Since,
	}

	for intent, count := range s.IntentCounts {
		info.Intents = append(info.Intents, ui.LabelCount{Label: string(intent), Count: count})
	}
	sortByCount(info.Intents)

	info.Latency = latencyRows(s.LatencyDistribution)

	for i, tc := range s.TopTerms {
		if i >= limit {
			break
		}
		info.TopTerms = append(info.TopTerms, ui.LabelCount{Label: tc.Term, Count: tc.Count})
	}

	for source, count := range s.SourceFailures {
		info.SourceFailures = append(info.SourceFailures, ui.LabelCount{Label: source, Count: count})
	}
	sortByCount(info.SourceFailures)

	info.ZeroResultQueries = s.ZeroResultQueries
	if len(info.ZeroResultQueries) > limit {
		info.ZeroResultQueries = info.ZeroResultQueries[:limit]
	}

	return info
}

// collectStoredStats reads persisted telemetry into the display shape.
// The date range spans all recorded days.
func collectStoredStats(store *telemetry.SQLiteMetricsStore, path string, limit int) (*ui.StatusInfo, error) {
	const epoch = "1970-01-01"
	today := time.Now().Format("2006-01-02")

	intents, err := store.GetIntentCounts(epoch, today)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent counts: %w", err)
	}
	latencies, err := store.GetLatencyCounts(epoch, today)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency counts: %w", err)
	}
	failures, err := store.GetSourceFailureCounts(epoch, today)
	if err != nil {
		return nil, fmt.Errorf("failed to read source failures: %w", err)
	}
	topTerms, err := store.GetTopTerms(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read top terms: %w", err)
	}
	zeroResults, err := store.GetZeroResultQueries(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read zero-result queries: %w", err)
	}

	var total int64
	for _, count := range intents {
		total += count
	}

	info := &ui.StatusInfo{
		TotalQueries: total,
		DBPath:       path,
	}
	if fi, err := os.Stat(path); err == nil {
		info.DBSize = fi.Size()
	}

	for intent, count := range intents {
		info.Intents = append(info.Intents, ui.LabelCount{Label: string(intent), Count: count})
	}
	sortByCount(info.Intents)

	info.Latency = latencyRows(latencies)

	for _, tc := range topTerms {
		info.TopTerms = append(info.TopTerms, ui.LabelCount{Label: tc.Term, Count: tc.Count})
	}

	for source, count := range failures {
		info.SourceFailures = append(info.SourceFailures, ui.LabelCount{Label: source, Count: count})
	}
	sortByCount(info.SourceFailures)

	info.ZeroResultQueries = zeroResults

	return info, nil
}

// latencyRows orders the latency histogram from fastest to slowest bucket.
func latencyRows(counts map[telemetry.LatencyBucket]int64) []ui.LabelCount {
	var rows []ui.LabelCount
	for _, bucket := range []telemetry.LatencyBucket{
		telemetry.Bucket100,
		telemetry.Bucket500,
		telemetry.Bucket1s,
		telemetry.Bucket3s,
		telemetry.BucketSlow,
	} {
		if count, ok := counts[bucket]; ok {
			rows = append(rows, ui.LabelCount{Label: string(bucket), Count: count})
		}
	}
	return rows
}

func sortByCount(rows []ui.LabelCount) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
}
