package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devseek/devseek/internal/model"
)

// Config is the complete devseek configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Sources   SourcesConfig   `yaml:"sources" json:"sources"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Rewrite   RewriteConfig   `yaml:"rewrite" json:"rewrite"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SourcesConfig configures the upstream source clients.
type SourcesConfig struct {
	// Enabled restricts fetching to the named sources
	// (code_host, model_hub, discussion). Empty means all three.
	Enabled []string `yaml:"enabled" json:"enabled"`

	// GitHubToken is an optional API token for the code host client.
	// Unauthenticated requests work but hit a lower rate limit.
	GitHubToken string `yaml:"github_token" json:"github_token"`

	// UserAgent overrides the user agent sent to upstream APIs.
	UserAgent string `yaml:"user_agent" json:"user_agent"`

	// Timeout is the per-source fetch budget (e.g. "10s").
	Timeout string `yaml:"timeout" json:"timeout"`

	// MaxPerSource caps the records fetched from each source per query.
	MaxPerSource int `yaml:"max_per_source" json:"max_per_source"`
}

// EnabledSources returns the configured sources in canonical order.
// An empty Enabled list means every source.
func (s SourcesConfig) EnabledSources() []model.Source {
	if len(s.Enabled) == 0 {
		return model.Sources
	}
	enabled := make(map[model.Source]bool, len(s.Enabled))
	for _, name := range s.Enabled {
		enabled[model.Source(strings.TrimSpace(name))] = true
	}
	var out []model.Source
	for _, src := range model.Sources {
		if enabled[src] {
			out = append(out, src)
		}
	}
	return out
}

// FetchTimeout returns the parsed per-source budget, defaulting to 10s.
func (s SourcesConfig) FetchTimeout() time.Duration {
	return parseDurationOr(s.Timeout, 10*time.Second)
}

// SearchConfig configures result assembly and intent tuning.
type SearchConfig struct {
	// MaxResults is the default cap on the merged result list.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// PatternsFile points at a YAML intent pattern override file.
	// When set, the serve command watches it and hot-reloads the
	// classifier on change.
	PatternsFile string `yaml:"patterns_file" json:"patterns_file"`

	// Weights overrides the per-intent source weight table. Keys are
	// intent category names; each row must sum to 1.0.
	Weights map[string]model.SourceWeights `yaml:"weights" json:"weights"`
}

// WeightOverrides returns the configured weight rows keyed by category.
func (s SearchConfig) WeightOverrides() map[model.IntentCategory]model.SourceWeights {
	if len(s.Weights) == 0 {
		return nil
	}
	out := make(map[model.IntentCategory]model.SourceWeights, len(s.Weights))
	for name, row := range s.Weights {
		out[model.IntentCategory(name)] = row
	}
	return out
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Backend selects the cache implementation: "memory", "redis", or "none".
	Backend string `yaml:"backend" json:"backend"`

	// MemorySize is the entry capacity of the in-memory backend.
	MemorySize int `yaml:"memory_size" json:"memory_size"`

	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`

	// SearchTTL and TrendingTTL bound how long cached responses serve.
	SearchTTL   string `yaml:"search_ttl" json:"search_ttl"`
	TrendingTTL string `yaml:"trending_ttl" json:"trending_ttl"`
}

// SearchTTLDuration returns the parsed search TTL, defaulting to 10m.
func (c CacheConfig) SearchTTLDuration() time.Duration {
	return parseDurationOr(c.SearchTTL, 10*time.Minute)
}

// TrendingTTLDuration returns the parsed trending TTL, defaulting to 30m.
func (c CacheConfig) TrendingTTLDuration() time.Duration {
	return parseDurationOr(c.TrendingTTL, 30*time.Minute)
}

// RewriteConfig configures the query rewrite collaborator.
type RewriteConfig struct {
	// Mode selects the rewriter: "rules" (no external calls), "llm"
	// (local Ollama endpoint), or "hybrid" (llm with rules fallback).
	Mode string `yaml:"mode" json:"mode"`

	// OllamaHost is the local LLM endpoint (default http://localhost:11434).
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// Model is the rewrite model name.
	Model string `yaml:"model" json:"model"`

	// SynthesisModel is the model used for result synthesis.
	SynthesisModel string `yaml:"synthesis_model" json:"synthesis_model"`

	// Timeout bounds a single generation (e.g. "5s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// TimeoutDuration returns the parsed generation timeout, defaulting to 5s.
func (r RewriteConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(r.Timeout, 5*time.Second)
}

// LoggingConfig configures the slog setup.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`

	// File is the log file path. Empty uses the default under the data dir.
	File string `yaml:"file" json:"file"`
}

// TelemetryConfig configures query metrics collection.
type TelemetryConfig struct {
	// Enabled toggles metrics collection. YAML cannot distinguish an
	// unset bool from false, so Enabled only merges when the section
	// also sets db_path.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// DBPath is the SQLite file for metrics persistence. Empty keeps
	// metrics in memory only.
	DBPath string `yaml:"db_path" json:"db_path"`
}

// NewConfig creates a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Sources: SourcesConfig{
			Enabled:      nil, // all sources
			Timeout:      "10s",
			MaxPerSource: 8,
		},
		Search: SearchConfig{
			MaxResults: 30,
		},
		Cache: CacheConfig{
			Backend:     "memory",
			MemorySize:  512,
			RedisAddr:   "localhost:6379",
			SearchTTL:   "10m",
			TrendingTTL: "30m",
		},
		Rewrite: RewriteConfig{
			Mode:    "rules", // works offline; llm/hybrid are opt-in
			Timeout: "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			DBPath:  defaultTelemetryPath(),
		},
	}
}

// DataDir returns the devseek data directory (~/.devseek).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".devseek")
	}
	return filepath.Join(home, ".devseek")
}

// defaultTelemetryPath returns the default metrics database path.
func defaultTelemetryPath() string {
	return filepath.Join(DataDir(), "telemetry.db")
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/devseek/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/devseek/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "devseek", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "devseek", "config.yaml")
	}
	return filepath.Join(home, ".config", "devseek", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()

	if !fileExists(configPath) {
		return nil, nil // no user config is fine
	}

	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}

	return cfg, nil
}

// Load loads configuration for the given project directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/devseek/config.yaml)
//  3. Project config (.devseek/config.yaml in the project root)
//  4. Environment variables (DEVSEEK_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ProjectConfigPath returns the project config path under dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ".devseek", "config.yaml")
}

// loadFromFile attempts to load .devseek/config.yaml or .devseek/config.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := ProjectConfigPath(dir)
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".devseek", "config.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Server
	if other.Server.Host != "" {
		c.Server.Host = other.Server.Host
	}
	if other.Server.Port != 0 {
		c.Server.Port = other.Server.Port
	}

	// Sources
	if len(other.Sources.Enabled) > 0 {
		c.Sources.Enabled = other.Sources.Enabled
	}
	if other.Sources.GitHubToken != "" {
		c.Sources.GitHubToken = other.Sources.GitHubToken
	}
	if other.Sources.UserAgent != "" {
		c.Sources.UserAgent = other.Sources.UserAgent
	}
	if other.Sources.Timeout != "" {
		c.Sources.Timeout = other.Sources.Timeout
	}
	if other.Sources.MaxPerSource != 0 {
		c.Sources.MaxPerSource = other.Sources.MaxPerSource
	}

	// Search
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.PatternsFile != "" {
		c.Search.PatternsFile = other.Search.PatternsFile
	}
	if len(other.Search.Weights) > 0 {
		if c.Search.Weights == nil {
			c.Search.Weights = make(map[string]model.SourceWeights, len(other.Search.Weights))
		}
		for category, row := range other.Search.Weights {
			c.Search.Weights[category] = row
		}
	}

	// Cache
	if other.Cache.Backend != "" {
		c.Cache.Backend = other.Cache.Backend
	}
	if other.Cache.MemorySize != 0 {
		c.Cache.MemorySize = other.Cache.MemorySize
	}
	if other.Cache.RedisAddr != "" {
		c.Cache.RedisAddr = other.Cache.RedisAddr
	}
	if other.Cache.RedisPassword != "" {
		c.Cache.RedisPassword = other.Cache.RedisPassword
	}
	if other.Cache.RedisDB != 0 {
		c.Cache.RedisDB = other.Cache.RedisDB
	}
	if other.Cache.SearchTTL != "" {
		c.Cache.SearchTTL = other.Cache.SearchTTL
	}
	if other.Cache.TrendingTTL != "" {
		c.Cache.TrendingTTL = other.Cache.TrendingTTL
	}

	// Rewrite
	if other.Rewrite.Mode != "" {
		c.Rewrite.Mode = other.Rewrite.Mode
	}
	if other.Rewrite.OllamaHost != "" {
		c.Rewrite.OllamaHost = other.Rewrite.OllamaHost
	}
	if other.Rewrite.Model != "" {
		c.Rewrite.Model = other.Rewrite.Model
	}
	if other.Rewrite.SynthesisModel != "" {
		c.Rewrite.SynthesisModel = other.Rewrite.SynthesisModel
	}
	if other.Rewrite.Timeout != "" {
		c.Rewrite.Timeout = other.Rewrite.Timeout
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}

	// Telemetry
	if other.Telemetry.DBPath != "" {
		c.Telemetry.DBPath = other.Telemetry.DBPath
		// Enabled rides along only when the section is present; a bare
		// false is indistinguishable from unset.
		c.Telemetry.Enabled = other.Telemetry.Enabled
	}
}

// applyEnvOverrides applies DEVSEEK_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEVSEEK_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("DEVSEEK_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			c.Server.Port = p
		}
	}

	if v := os.Getenv("DEVSEEK_SOURCES"); v != "" {
		var enabled []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				enabled = append(enabled, name)
			}
		}
		if len(enabled) > 0 {
			c.Sources.Enabled = enabled
		}
	}
	if v := os.Getenv("DEVSEEK_GITHUB_TOKEN"); v != "" {
		c.Sources.GitHubToken = v
	}

	if v := os.Getenv("DEVSEEK_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("DEVSEEK_PATTERNS_FILE"); v != "" {
		c.Search.PatternsFile = v
	}

	if v := os.Getenv("DEVSEEK_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("DEVSEEK_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("DEVSEEK_REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("DEVSEEK_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil && db >= 0 {
			c.Cache.RedisDB = db
		}
	}

	if v := os.Getenv("DEVSEEK_REWRITE_MODE"); v != "" {
		c.Rewrite.Mode = v
	}
	if v := os.Getenv("DEVSEEK_OLLAMA_HOST"); v != "" {
		c.Rewrite.OllamaHost = v
	}
	if v := os.Getenv("DEVSEEK_REWRITE_MODEL"); v != "" {
		c.Rewrite.Model = v
	}

	if v := os.Getenv("DEVSEEK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DEVSEEK_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	if v := os.Getenv("DEVSEEK_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("DEVSEEK_TELEMETRY_DB"); v != "" {
		c.Telemetry.DBPath = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	seen := map[string]bool{}
	for _, name := range c.Sources.Enabled {
		name = strings.TrimSpace(name)
		if !model.Source(name).Valid() {
			return fmt.Errorf("sources.enabled contains unknown source %q", name)
		}
		if seen[name] {
			return fmt.Errorf("sources.enabled lists %q twice", name)
		}
		seen[name] = true
	}
	if err := validateDuration("sources.timeout", c.Sources.Timeout); err != nil {
		return err
	}
	if c.Sources.MaxPerSource < 1 || c.Sources.MaxPerSource > 50 {
		return fmt.Errorf("sources.max_per_source must be between 1 and 50, got %d", c.Sources.MaxPerSource)
	}

	if c.Search.MaxResults < 1 || c.Search.MaxResults > 100 {
		return fmt.Errorf("search.max_results must be between 1 and 100, got %d", c.Search.MaxResults)
	}
	for category, row := range c.Search.Weights {
		if !model.IntentCategory(category).Valid() {
			return fmt.Errorf("search.weights references unknown intent category %q", category)
		}
		if !row.Normalized() {
			return fmt.Errorf("search.weights.%s must sum to 1.0, got %.2f", category, row.Sum())
		}
	}

	validBackends := map[string]bool{"memory": true, "redis": true, "none": true}
	if !validBackends[strings.ToLower(c.Cache.Backend)] {
		return fmt.Errorf("cache.backend must be 'memory', 'redis', or 'none', got %s", c.Cache.Backend)
	}
	if c.Cache.MemorySize < 1 {
		return fmt.Errorf("cache.memory_size must be positive, got %d", c.Cache.MemorySize)
	}
	if err := validateDuration("cache.search_ttl", c.Cache.SearchTTL); err != nil {
		return err
	}
	if err := validateDuration("cache.trending_ttl", c.Cache.TrendingTTL); err != nil {
		return err
	}

	validModes := map[string]bool{"rules": true, "llm": true, "hybrid": true}
	if !validModes[strings.ToLower(c.Rewrite.Mode)] {
		return fmt.Errorf("rewrite.mode must be 'rules', 'llm', or 'hybrid', got %s", c.Rewrite.Mode)
	}
	if err := validateDuration("rewrite.timeout", c.Rewrite.Timeout); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

// validateDuration checks that a non-empty duration string parses positive.
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a duration like '10s', got %q", field, value)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %q", field, value)
	}
	return nil
}

// parseDurationOr parses a duration string, falling back on empty or invalid.
func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

// FindProjectRoot finds the project root directory by walking up from
// startDir until a .git directory or a .devseek config directory appears.
// Falls back to startDir when neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(ProjectConfigPath(currentDir)) ||
			fileExists(filepath.Join(currentDir, ".devseek", "config.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// MergeNewDefaults adds new default fields while preserving existing values.
// Returns a list of field names that were added with their default values.
// Used by config upgrades so older files keep working after new sections land.
func (c *Config) MergeNewDefaults() []string {
	defaults := NewConfig()
	var added []string

	if c.Sources.Timeout == "" {
		c.Sources.Timeout = defaults.Sources.Timeout
		added = append(added, "sources.timeout")
	}
	if c.Sources.MaxPerSource == 0 {
		c.Sources.MaxPerSource = defaults.Sources.MaxPerSource
		added = append(added, "sources.max_per_source")
	}

	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = defaults.Search.MaxResults
		added = append(added, "search.max_results")
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = defaults.Cache.Backend
		added = append(added, "cache.backend")
	}
	if c.Cache.MemorySize == 0 {
		c.Cache.MemorySize = defaults.Cache.MemorySize
		added = append(added, "cache.memory_size")
	}
	if c.Cache.SearchTTL == "" {
		c.Cache.SearchTTL = defaults.Cache.SearchTTL
		added = append(added, "cache.search_ttl")
	}
	if c.Cache.TrendingTTL == "" {
		c.Cache.TrendingTTL = defaults.Cache.TrendingTTL
		added = append(added, "cache.trending_ttl")
	}

	if c.Rewrite.Mode == "" {
		c.Rewrite.Mode = defaults.Rewrite.Mode
		added = append(added, "rewrite.mode")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
		added = append(added, "logging.level")
	}

	if c.Telemetry.DBPath == "" {
		c.Telemetry.DBPath = defaults.Telemetry.DBPath
		added = append(added, "telemetry.db_path")
	}

	return added
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
