package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devseek/devseek/internal/engine"
	"github.com/devseek/devseek/internal/model"
	"github.com/devseek/devseek/internal/telemetry"
	"github.com/devseek/devseek/pkg/version"
)

// Tool names and descriptions. The descriptions are written for AI agents:
// they explain when to reach for the tool, not how it works.
const (
	searchToolName   = "dev_search"
	trendingToolName = "dev_trending"

	searchToolDescription = "Meta-search for developer resources. One query fans out to " +
		"code hosting (GitHub), model hub (Hugging Face), and discussion (Reddit) sources " +
		"and returns a single ranked list with quality, maintenance, and community-sentiment " +
		"signals. Use this instead of separate per-site searches when evaluating libraries, " +
		"frameworks, or models."

	trendingToolDescription = "Snapshot of currently trending repositories, models, and " +
		"discussion threads across the configured sources. Takes no parameters. Use it to " +
		"answer \"what is popular right now\" questions."
)

// defaultToolResults caps tool responses lower than the HTTP API default;
// agent contexts pay for every token of output.
const defaultToolResults = 10

// Server is the MCP server for devseek. It bridges AI agents (Claude Code,
// Cursor) with the meta-search engine over stdio.
type Server struct {
	mcp    *mcp.Server
	engine engine.Searcher
	logger *slog.Logger

	// Query telemetry (optional, set via SetMetrics)
	metrics *telemetry.QueryMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server around the search engine.
func NewServer(eng engine.Searcher, logger *slog.Logger) (*Server, error) {
	if eng == nil {
		return nil, errors.New("search engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: eng,
		logger: logger,
	}

	// Create MCP server with implementation info
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "devseek",
			Version: version.Version,
		},
		nil, // ServerOptions - capabilities are inferred from registered tools/resources
	)

	s.registerTools()

	return s, nil
}

// SetMetrics sets the query metrics collector for telemetry.
// When set, a query_metrics resource is registered.
func (s *Server) SetMetrics(m *telemetry.QueryMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerQueryMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "devseek", version.Version
}

// Capabilities returns whether tools and resources are enabled. Resources
// exist only when telemetry is wired in.
func (s *Server) Capabilities() (hasTools, hasResources bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return true, s.metrics != nil
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: searchToolName, Description: searchToolDescription},
		{Name: trendingToolName, Description: trendingToolDescription},
	}
}

// CallTool invokes a tool by name with the given arguments. It returns
// markdown output; the typed SDK handlers return structured output instead.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case searchToolName:
		return s.handleSearchTool(ctx, args)
	case trendingToolName:
		return s.handleTrendingTool(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleSearchTool handles the dev_search tool invocation.
// Returns markdown-formatted results.
func (s *Server) handleSearchTool(ctx context.Context, args map[string]any) (string, error) {
	start := time.Now()
	requestID := generateRequestID()

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	opts := engine.Options{
		MaxResults: clampLimit(0, defaultToolResults, 1, engine.MaxResultsLimit),
	}
	if l, ok := args["max_results"].(float64); ok {
		opts.MaxResults = clampLimit(int(l), defaultToolResults, 1, engine.MaxResultsLimit)
	}
	if refresh, ok := args["refresh"].(bool); ok {
		opts.Refresh = refresh
	}

	if raw, ok := args["sources"].([]interface{}); ok {
		names := make([]string, 0, len(raw))
		for _, item := range raw {
			str, ok := item.(string)
			if !ok {
				return "", NewInvalidParamsError("sources must be an array of strings")
			}
			names = append(names, str)
		}
		sources, err := sourceFilter(names)
		if err != nil {
			return "", err
		}
		opts.Sources = sources
	}

	s.logger.Info("dev_search started",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("max_results", opts.MaxResults))

	resp, err := s.engine.Search(ctx, query, opts)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("dev_search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", MapError(err)
	}

	s.logger.Info("dev_search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", len(resp.Results)),
		slog.Bool("cached", resp.Cached))

	return FormatSearchResults(resp), nil
}

// handleTrendingTool handles the dev_trending tool invocation.
// Returns markdown-formatted results.
func (s *Server) handleTrendingTool(ctx context.Context) (string, error) {
	start := time.Now()
	requestID := generateRequestID()

	s.logger.Info("dev_trending started",
		slog.String("request_id", requestID))

	resp, err := s.engine.Trending(ctx)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("dev_trending failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", MapError(err)
	}

	s.logger.Info("dev_trending completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("repo_count", len(resp.Repos)),
		slog.Int("model_count", len(resp.Cards)),
		slog.Int("thread_count", len(resp.Threads)))

	return FormatTrending(resp), nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        searchToolName,
		Description: searchToolDescription,
	}, s.mcpSearchHandler)
	s.logger.Debug("Registered tool", slog.String("name", searchToolName))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        trendingToolName,
		Description: trendingToolDescription,
	}, s.mcpTrendingHandler)
	s.logger.Debug("Registered tool", slog.String("name", trendingToolName))

	s.logger.Info("MCP tools registered", slog.Int("count", 2))
}

// mcpSearchHandler is the MCP SDK handler for the dev_search tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required")
	}

	sources, err := sourceFilter(input.Sources)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	opts := engine.Options{
		Sources:    sources,
		MaxResults: clampLimit(input.MaxResults, defaultToolResults, 1, engine.MaxResultsLimit),
		Refresh:    input.Refresh,
	}

	resp, searchErr := s.engine.Search(ctx, input.Query, opts)
	if searchErr != nil {
		return nil, SearchOutput{}, MapError(searchErr)
	}

	return nil, ToSearchOutput(resp), nil
}

// mcpTrendingHandler is the MCP SDK handler for the dev_trending tool.
func (s *Server) mcpTrendingHandler(ctx context.Context, _ *mcp.CallToolRequest, _ TrendingInput) (
	*mcp.CallToolResult,
	TrendingOutput,
	error,
) {
	resp, err := s.engine.Trending(ctx)
	if err != nil {
		return nil, TrendingOutput{}, MapError(err)
	}

	return nil, ToTrendingOutput(resp), nil
}

// sourceFilter validates source names and converts them to model sources.
// An empty list means no filter.
func sourceFilter(names []string) ([]model.Source, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]model.Source, 0, len(names))
	for _, name := range names {
		src := model.Source(strings.TrimSpace(name))
		if !src.Valid() {
			return nil, NewInvalidParamsError(fmt.Sprintf("unknown source %q (valid: %s)", name, validSourceNames()))
		}
		out = append(out, src)
	}
	return out, nil
}

// validSourceNames lists the accepted source names for error messages.
func validSourceNames() string {
	names := make([]string, len(model.Sources))
	for i, src := range model.Sources {
		names[i] = src.String()
	}
	return strings.Join(names, ", ")
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		s.logger.Debug("Using stdio transport for JSON-RPC")
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close releases server resources. The engine is owned by the caller and is
// not closed here; the MCP server itself stops when its context is canceled.
func (s *Server) Close() error {
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
