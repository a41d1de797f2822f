package mcp

// SearchInput defines the input schema for the dev_search tool.
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"the developer-resource search query"`
	Sources    []string `json:"sources,omitempty" jsonschema:"restrict results to sources: code_host, model_hub, discussion"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"maximum merged results, default 10, max 100"`
	Refresh    bool     `json:"refresh,omitempty" jsonschema:"bypass the cache and fetch fresh results"`
}

// TrendingInput defines the input schema for the dev_trending tool (no parameters).
type TrendingInput struct{}

// SearchOutput defines the output schema for the dev_search tool.
type SearchOutput struct {
	Query     string         `json:"query" jsonschema:"the trimmed query that was executed"`
	Intent    string         `json:"intent" jsonschema:"classified intent category"`
	Results   []ResultOutput `json:"results" jsonschema:"merged ranked results across all sources"`
	Synthesis string         `json:"synthesis,omitempty" jsonschema:"narrative verdict over the results"`
	Errors    []string       `json:"errors,omitempty" jsonschema:"sources that failed, phrased for end users"`
	Cached    bool           `json:"cached" jsonschema:"true when served from the cache"`
}

// ResultOutput defines a single result with ranking context. The variant
// fields after Signals are populated according to Source.
type ResultOutput struct {
	Rank        int     `json:"rank" jsonschema:"1-based position in the list"`
	Score       float64 `json:"score,omitempty" jsonschema:"cross-source merged score"`
	Source      string  `json:"source" jsonschema:"code_host, model_hub, or discussion"`
	Title       string  `json:"title" jsonschema:"record display title"`
	URL         string  `json:"url" jsonschema:"canonical record URL"`
	Description string  `json:"description,omitempty" jsonschema:"short record description or body excerpt"`
	Signals     string  `json:"signals,omitempty" jsonschema:"human-readable summary of the ranking signals"`

	// code_host fields
	Stars    int    `json:"stars,omitempty" jsonschema:"stargazer count"`
	Language string `json:"language,omitempty" jsonschema:"primary programming language"`
	Status   string `json:"status,omitempty" jsonschema:"maintenance state: active, maintained, stale, abandoned"`

	// model_hub fields
	Downloads   int    `json:"downloads,omitempty" jsonschema:"cumulative download count"`
	Likes       int    `json:"likes,omitempty" jsonschema:"like count"`
	PipelineTag string `json:"pipeline_tag,omitempty" jsonschema:"declared task tag"`

	// discussion fields
	Section   string `json:"section,omitempty" jsonschema:"forum section name"`
	Votes     int    `json:"votes,omitempty" jsonschema:"net vote score"`
	Comments  int    `json:"comments,omitempty" jsonschema:"comment count"`
	Sentiment string `json:"sentiment,omitempty" jsonschema:"aggregate comment sentiment"`
	Warning   bool   `json:"warning,omitempty" jsonschema:"true when comments carry repeated negative signals"`
}

// TrendingOutput defines the output schema for the dev_trending tool.
type TrendingOutput struct {
	Repos       []ResultOutput `json:"repos" jsonschema:"trending repositories"`
	Models      []ResultOutput `json:"models" jsonschema:"trending models"`
	Discussions []ResultOutput `json:"discussions" jsonschema:"trending discussion threads"`
	Synthesis   string         `json:"synthesis,omitempty" jsonschema:"narrative summary of the snapshot"`
	Errors      []string       `json:"errors,omitempty" jsonschema:"sources that failed, phrased for end users"`
	Cached      bool           `json:"cached" jsonschema:"true when served from the cache"`
}
