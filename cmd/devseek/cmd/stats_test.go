package cmd

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devseek/devseek/internal/telemetry"
	"github.com/devseek/devseek/internal/ui"
)

func TestStatsCmd_HasFlags(t *testing.T) {
	// Given: the stats command
	rootCmd := NewRootCmd()
	statsCmd, _, err := rootCmd.Find([]string{"stats"})
	require.NoError(t, err)

	// Then: it should have the documented flags
	jsonFlag := statsCmd.Flags().Lookup("json")
	require.NotNil(t, jsonFlag, "should have --json flag")
	assert.Equal(t, "false", jsonFlag.DefValue)

	limitFlag := statsCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag, "should have --limit flag")
	assert.Equal(t, "10", limitFlag.DefValue)

	assert.NotNil(t, statsCmd.Flags().Lookup("local"), "should have --local flag")
	assert.NotNil(t, statsCmd.Flags().Lookup("no-color"), "should have --no-color flag")
}

func TestCollectStoredStats_ReadsPersistedCounts(t *testing.T) {
	// Given: a telemetry database with one flushed day of activity
	path := filepath.Join(t.TempDir(), "telemetry.db")
	store, err := telemetry.OpenSQLiteMetricsStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	today := time.Now().Format("2006-01-02")
	require.NoError(t, store.SaveIntentCounts(today, map[telemetry.Intent]int64{
		"project_search": 12,
		"how_to":         5,
	}))
	require.NoError(t, store.UpsertTermCounts(map[string]int64{
		"http": 9, "router": 7, "grpc": 2,
	}))
	require.NoError(t, store.SaveLatencyCounts(today, map[telemetry.LatencyBucket]int64{
		telemetry.Bucket100:  4,
		telemetry.Bucket500:  10,
		telemetry.BucketSlow: 3,
	}))
	require.NoError(t, store.SaveSourceFailureCounts(today, map[string]int64{
		"reddit": 2,
	}))
	require.NoError(t, store.AddZeroResultQuery("quantum blockchain yaml", time.Now()))

	// When: collecting stats from the store
	info, err := collectStoredStats(store, path, 10)

	// Then: totals and distributions reflect the persisted data
	require.NoError(t, err)
	assert.Equal(t, int64(17), info.TotalQueries)
	assert.Equal(t, path, info.DBPath)
	assert.Positive(t, info.DBSize)

	require.Len(t, info.Intents, 2)
	assert.Equal(t, ui.LabelCount{Label: "project_search", Count: 12}, info.Intents[0])

	// Latency keeps bucket order, skipping empty buckets
	require.Len(t, info.Latency, 3)
	assert.Equal(t, "lt100ms", info.Latency[0].Label)
	assert.Equal(t, "lt500ms", info.Latency[1].Label)
	assert.Equal(t, "slow", info.Latency[2].Label)

	require.NotEmpty(t, info.TopTerms)
	assert.Equal(t, ui.LabelCount{Label: "http", Count: 9}, info.TopTerms[0])

	require.Len(t, info.SourceFailures, 1)
	assert.Equal(t, "reddit", info.SourceFailures[0].Label)

	assert.Equal(t, []string{"quantum blockchain yaml"}, info.ZeroResultQueries)
}

func TestCollectStoredStats_EmptyDatabase(t *testing.T) {
	// Given: a freshly created telemetry database
	path := filepath.Join(t.TempDir(), "telemetry.db")
	store, err := telemetry.OpenSQLiteMetricsStore(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	// When: collecting stats
	info, err := collectStoredStats(store, path, 10)

	// Then: zero totals, no rows, no error
	require.NoError(t, err)
	assert.Zero(t, info.TotalQueries)
	assert.Empty(t, info.Intents)
	assert.Empty(t, info.Latency)
	assert.Empty(t, info.TopTerms)
}

func TestSnapshotToStatus_MapsLiveCounters(t *testing.T) {
	// Given: a live snapshot with cache hits and zero results
	snapshot := &telemetry.QueryMetricsSnapshot{
		IntentCounts: map[telemetry.Intent]int64{
			"recommendation": 6,
			"general":        2,
		},
		TopTerms: []telemetry.TermCount{
			{Term: "react", Count: 5},
			{Term: "vue", Count: 3},
		},
		ZeroResultQueries: []string{"left-handed compiler"},
		LatencyDistribution: map[telemetry.LatencyBucket]int64{
			telemetry.Bucket100: 3,
			telemetry.Bucket3s:  5,
		},
		SourceFailures:  map[string]int64{"github": 1},
		TotalQueries:    8,
		ZeroResultCount: 2,
		CacheHitCount:   4,
		Since:           time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	// When: mapping to the display shape
	info := snapshotToStatus(snapshot, 10)

	// Then: rates are derived and rows are ordered
	assert.Equal(t, int64(8), info.TotalQueries)
	assert.InDelta(t, 0.5, info.CacheHitRate, 0.001)
	assert.InDelta(t, 25.0, info.ZeroResultPct, 0.001)
	assert.Equal(t, snapshot.Since, info.Since)

	require.Len(t, info.Intents, 2)
	assert.Equal(t, "recommendation", info.Intents[0].Label)

	require.Len(t, info.Latency, 2)
	assert.Equal(t, "lt100ms", info.Latency[0].Label)
	assert.Equal(t, "lt3s", info.Latency[1].Label)
}

func TestSnapshotToStatus_AppliesLimit(t *testing.T) {
	// Given: more terms than the display limit
	snapshot := &telemetry.QueryMetricsSnapshot{
		TopTerms: []telemetry.TermCount{
			{Term: "a", Count: 5},
			{Term: "b", Count: 4},
			{Term: "c", Count: 3},
		},
		ZeroResultQueries: []string{"q1", "q2", "q3"},
	}

	// When: mapping with limit 2
	info := snapshotToStatus(snapshot, 2)

	// Then: both lists are truncated
	assert.Len(t, info.TopTerms, 2)
	assert.Len(t, info.ZeroResultQueries, 2)
}

func TestLatencyRows_OrdersBuckets(t *testing.T) {
	// Given: counts in arbitrary map order
	rows := latencyRows(map[telemetry.LatencyBucket]int64{
		telemetry.BucketSlow: 1,
		telemetry.Bucket100:  9,
		telemetry.Bucket1s:   4,
	})

	// Then: fastest bucket first
	require.Len(t, rows, 3)
	assert.Equal(t, "lt100ms", rows[0].Label)
	assert.Equal(t, "lt1s", rows[1].Label)
	assert.Equal(t, "slow", rows[2].Label)
}

func TestSortByCount_TiesBreakAlphabetically(t *testing.T) {
	// Given: rows with a tie
	rows := []ui.LabelCount{
		{Label: "zeta", Count: 3},
		{Label: "alpha", Count: 3},
		{Label: "mid", Count: 7},
	}

	// When: sorting
	sortByCount(rows)

	// Then: count desc, then label asc
	assert.Equal(t, "mid", rows[0].Label)
	assert.Equal(t, "alpha", rows[1].Label)
	assert.Equal(t, "zeta", rows[2].Label)
}
