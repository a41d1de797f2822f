package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleFromActivity(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want LifecycleStatus
	}{
		{"pushed yesterday", 24 * time.Hour, LifecycleActive},
		{"pushed 29 days ago", 29 * 24 * time.Hour, LifecycleActive},
		{"pushed 31 days ago", 31 * 24 * time.Hour, LifecycleMaintained},
		{"pushed 179 days ago", 179 * 24 * time.Hour, LifecycleMaintained},
		{"pushed 181 days ago", 181 * 24 * time.Hour, LifecycleStale},
		{"pushed 364 days ago", 364 * 24 * time.Hour, LifecycleStale},
		{"pushed 2 years ago", 2 * 365 * 24 * time.Hour, LifecycleAbandoned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LifecycleFromActivity(now.Add(-tt.age), now)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("zero timestamp is unknown", func(t *testing.T) {
		assert.Equal(t, LifecycleUnknown, LifecycleFromActivity(time.Time{}, now))
	})
}

func TestSourceRecord_Accessors(t *testing.T) {
	t.Run("code variant", func(t *testing.T) {
		rec := CodeRecord(&CodeRepo{Title: "acme/widget", URL: "https://example.com/acme/widget"})
		assert.Equal(t, SourceCodeHost, rec.Source)
		assert.Equal(t, "acme/widget", rec.Title())
		assert.Equal(t, "https://example.com/acme/widget", rec.URL())
		assert.False(t, rec.Empty())
	})

	t.Run("model variant", func(t *testing.T) {
		rec := ModelRecord(&ModelCard{Title: "acme/bert-tiny", URL: "https://example.com/acme/bert-tiny"})
		assert.Equal(t, SourceModelHub, rec.Source)
		assert.Equal(t, "acme/bert-tiny", rec.Title())
		assert.False(t, rec.Empty())
	})

	t.Run("discussion variant", func(t *testing.T) {
		rec := DiscussionRecord(&DiscussionThread{Title: "Best Go router?", URL: "https://example.com/t/1"})
		assert.Equal(t, SourceDiscussion, rec.Source)
		assert.Equal(t, "Best Go router?", rec.Title())
		assert.False(t, rec.Empty())
	})

	t.Run("empty union", func(t *testing.T) {
		rec := SourceRecord{Source: SourceCodeHost}
		assert.True(t, rec.Empty())
		assert.Equal(t, "", rec.Title())
		assert.Equal(t, "", rec.URL())
	})
}

func TestSource_Valid(t *testing.T) {
	assert.True(t, SourceCodeHost.Valid())
	assert.True(t, SourceModelHub.Valid())
	assert.True(t, SourceDiscussion.Valid())
	assert.False(t, Source("wiki").Valid())
}

func TestSources_AppendOrder(t *testing.T) {
	// The merge tie-break contract depends on this exact order.
	assert.Equal(t, []Source{SourceCodeHost, SourceModelHub, SourceDiscussion}, Sources)
}
