package mcp

import (
	"fmt"
	"strings"

	"github.com/devseek/devseek/internal/engine"
	"github.com/devseek/devseek/internal/fetch"
	"github.com/devseek/devseek/internal/model"
)

// excerptLength caps description excerpts in tool output.
const excerptLength = 200

// FormatSearchResults renders a search response as markdown for MCP clients.
func FormatSearchResults(resp *engine.Response) string {
	if resp == nil {
		return "No results found."
	}

	valid := validResults(resp.Results)
	if len(valid) == 0 {
		return fmt.Sprintf("No results found for %q", resp.Query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for %q\n\n", resp.Query)
	fmt.Fprintf(&sb, "**Intent:** %s", resp.Intent)
	if resp.Cached {
		sb.WriteString(" (cached)")
	}
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Found %d result", len(valid))
	if len(valid) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for _, r := range valid {
		formatResult(&sb, r)
	}

	if resp.Synthesis != "" {
		sb.WriteString("### Verdict\n\n")
		sb.WriteString(resp.Synthesis)
		sb.WriteString("\n\n")
	}

	writeSourceErrors(&sb, resp.SourceErrors)

	return sb.String()
}

// FormatTrending renders a trending snapshot as markdown for MCP clients.
func FormatTrending(resp *engine.TrendingResponse) string {
	if resp == nil || (len(resp.Repos) == 0 && len(resp.Cards) == 0 && len(resp.Threads) == 0) {
		return "No trending data available."
	}

	var sb strings.Builder
	sb.WriteString("## Trending Developer Resources\n\n")

	if len(resp.Repos) > 0 {
		sb.WriteString("### Repositories\n\n")
		for i, repo := range resp.Repos {
			formatTrendingItem(&sb, i+1, model.CodeRecord(repo))
		}
		sb.WriteString("\n")
	}

	if len(resp.Cards) > 0 {
		sb.WriteString("### Models\n\n")
		for i, card := range resp.Cards {
			formatTrendingItem(&sb, i+1, model.ModelRecord(card))
		}
		sb.WriteString("\n")
	}

	if len(resp.Threads) > 0 {
		sb.WriteString("### Discussions\n\n")
		for i, thread := range resp.Threads {
			formatTrendingItem(&sb, i+1, model.DiscussionRecord(thread))
		}
		sb.WriteString("\n")
	}

	if resp.Synthesis != "" {
		sb.WriteString(resp.Synthesis)
		sb.WriteString("\n\n")
	}

	writeSourceErrors(&sb, resp.SourceErrors)

	return sb.String()
}

// validResults drops entries whose record union carries no payload.
func validResults(results []model.RankedResult) []model.RankedResult {
	valid := make([]model.RankedResult, 0, len(results))
	for _, r := range results {
		if !r.Record.Empty() {
			valid = append(valid, r)
		}
	}
	return valid
}

// formatResult formats a single merged result.
func formatResult(sb *strings.Builder, r model.RankedResult) {
	fmt.Fprintf(sb, "### %d. %s (score: %.2f)\n\n", r.Rank, r.Record.Title(), r.Score)
	fmt.Fprintf(sb, "<%s>\n\n", r.Record.URL())

	if signals := rankingSignals(r.Record); signals != "" {
		fmt.Fprintf(sb, "*%s*\n\n", signals)
	}
	if desc := recordDescription(r.Record); desc != "" {
		sb.WriteString(desc)
		sb.WriteString("\n\n")
	}
}

// formatTrendingItem formats one compact trending list entry.
func formatTrendingItem(sb *strings.Builder, num int, rec model.SourceRecord) {
	fmt.Fprintf(sb, "%d. **%s**", num, rec.Title())
	if signals := rankingSignals(rec); signals != "" {
		fmt.Fprintf(sb, " (%s)", signals)
	}
	fmt.Fprintf(sb, "\n   <%s>\n", rec.URL())
}

// writeSourceErrors appends a failure section when any source failed.
func writeSourceErrors(sb *strings.Builder, errs []fetch.SourceError) {
	if len(errs) == 0 {
		return
	}
	sb.WriteString("### Source Failures\n\n")
	for _, e := range errs {
		fmt.Fprintf(sb, "- **%s**: %s\n", e.Source, e.Message)
	}
	sb.WriteString("\n")
}

// rankingSignals builds a short human-readable summary of the signals the
// ranking weighed for a record.
func rankingSignals(rec model.SourceRecord) string {
	var parts []string

	switch rec.Source {
	case model.SourceCodeHost:
		repo := rec.Code
		if repo == nil {
			return ""
		}
		parts = append(parts, fmt.Sprintf("%s stars", humanCount(repo.Stars)))
		if repo.Language != "" {
			parts = append(parts, repo.Language)
		}
		if repo.Lifecycle != "" && repo.Lifecycle != model.LifecycleUnknown {
			parts = append(parts, string(repo.Lifecycle))
		}
	case model.SourceModelHub:
		card := rec.Model
		if card == nil {
			return ""
		}
		parts = append(parts, fmt.Sprintf("%s downloads", humanCount(card.Downloads)))
		if card.Likes > 0 {
			parts = append(parts, fmt.Sprintf("%s likes", humanCount(card.Likes)))
		}
		if card.PipelineTag != "" {
			parts = append(parts, card.PipelineTag)
		}
		if card.HasDemo {
			parts = append(parts, "live demo")
		}
	case model.SourceDiscussion:
		thread := rec.Discussion
		if thread == nil {
			return ""
		}
		if thread.Section != "" {
			parts = append(parts, "r/"+thread.Section)
		}
		parts = append(parts, fmt.Sprintf("%d votes", thread.Votes))
		parts = append(parts, fmt.Sprintf("%d comments", thread.Comments))
		if thread.Sentiment != "" && thread.Sentiment != model.SentimentNeutral {
			parts = append(parts, string(thread.Sentiment)+" sentiment")
		}
		if thread.Warning {
			parts = append(parts, "community warning")
		}
	}

	return strings.Join(parts, ", ")
}

// recordDescription returns the record's description excerpt for display.
func recordDescription(rec model.SourceRecord) string {
	switch rec.Source {
	case model.SourceCodeHost:
		if rec.Code != nil {
			return excerpt(rec.Code.Description, excerptLength)
		}
	case model.SourceModelHub:
		if rec.Model != nil {
			return excerpt(rec.Model.Description, excerptLength)
		}
	case model.SourceDiscussion:
		if rec.Discussion != nil {
			return excerpt(rec.Discussion.Body, excerptLength)
		}
	}
	return ""
}

// ToSearchOutput converts a search response to the structured tool output.
func ToSearchOutput(resp *engine.Response) SearchOutput {
	if resp == nil {
		return SearchOutput{Results: []ResultOutput{}}
	}

	out := SearchOutput{
		Query:     resp.Query,
		Intent:    resp.Intent.String(),
		Results:   make([]ResultOutput, 0, len(resp.Results)),
		Synthesis: resp.Synthesis,
		Errors:    fetch.Messages(resp.SourceErrors),
		Cached:    resp.Cached,
	}

	for _, r := range validResults(resp.Results) {
		out.Results = append(out.Results, ToResultOutput(r))
	}

	return out
}

// ToTrendingOutput converts a trending snapshot to the structured tool output.
func ToTrendingOutput(resp *engine.TrendingResponse) TrendingOutput {
	if resp == nil {
		return TrendingOutput{
			Repos:       []ResultOutput{},
			Models:      []ResultOutput{},
			Discussions: []ResultOutput{},
		}
	}

	out := TrendingOutput{
		Repos:       make([]ResultOutput, 0, len(resp.Repos)),
		Models:      make([]ResultOutput, 0, len(resp.Cards)),
		Discussions: make([]ResultOutput, 0, len(resp.Threads)),
		Synthesis:   resp.Synthesis,
		Errors:      fetch.Messages(resp.SourceErrors),
		Cached:      resp.Cached,
	}

	for i, repo := range resp.Repos {
		out.Repos = append(out.Repos, ToResultOutput(model.RankedResult{
			Record: model.CodeRecord(repo), Rank: i + 1,
		}))
	}
	for i, card := range resp.Cards {
		out.Models = append(out.Models, ToResultOutput(model.RankedResult{
			Record: model.ModelRecord(card), Rank: i + 1,
		}))
	}
	for i, thread := range resp.Threads {
		out.Discussions = append(out.Discussions, ToResultOutput(model.RankedResult{
			Record: model.DiscussionRecord(thread), Rank: i + 1,
		}))
	}

	return out
}

// ToResultOutput converts a ranked record to the flat tool output format.
func ToResultOutput(r model.RankedResult) ResultOutput {
	out := ResultOutput{
		Rank:    r.Rank,
		Score:   r.Score,
		Source:  r.Record.Source.String(),
		Title:   r.Record.Title(),
		URL:     r.Record.URL(),
		Signals: rankingSignals(r.Record),
	}

	switch r.Record.Source {
	case model.SourceCodeHost:
		if repo := r.Record.Code; repo != nil {
			out.Description = excerpt(repo.Description, excerptLength)
			out.Stars = repo.Stars
			out.Language = repo.Language
			out.Status = string(repo.Lifecycle)
		}
	case model.SourceModelHub:
		if card := r.Record.Model; card != nil {
			out.Description = excerpt(card.Description, excerptLength)
			out.Downloads = card.Downloads
			out.Likes = card.Likes
			out.PipelineTag = card.PipelineTag
		}
	case model.SourceDiscussion:
		if thread := r.Record.Discussion; thread != nil {
			out.Description = excerpt(thread.Body, excerptLength)
			out.Section = thread.Section
			out.Votes = thread.Votes
			out.Comments = thread.Comments
			out.Sentiment = string(thread.Sentiment)
			out.Warning = thread.Warning
		}
	}

	return out
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

// humanCount formats a count compactly (999, 12.8k, 2.4M).
func humanCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// excerpt trims s to at most max runes, appending an ellipsis when cut.
func excerpt(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max]), " ") + "..."
}
