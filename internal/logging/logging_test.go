package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeLogLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test log: %v", err)
	}
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDefaultPaths(t *testing.T) {
	dir := DefaultLogDir()
	if !strings.Contains(dir, ".devseek") || !strings.Contains(dir, "logs") {
		t.Errorf("DefaultLogDir should live under .devseek/logs, got: %s", dir)
	}

	path := DefaultLogPath()
	if filepath.Base(path) != "server.log" {
		t.Errorf("DefaultLogPath should end with server.log, got: %s", path)
	}
}

func TestConfigs(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("default level = %s, want info", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 || cfg.MaxFiles != 5 {
		t.Errorf("default rotation = %dMB/%d files, want 10MB/5", cfg.MaxSizeMB, cfg.MaxFiles)
	}
	if !cfg.WriteToStderr {
		t.Error("default config should mirror to stderr")
	}

	if dbg := DebugConfig(); dbg.Level != "debug" {
		t.Errorf("debug level = %s, want debug", dbg.Level)
	}
}

func TestSetup_WritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, cleanup, err := Setup(Config{
		Level:     "debug",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  3,
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer cleanup()

	logger.Info("hello from setup")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from setup") {
		t.Errorf("log file missing entry, got: %s", content)
	}
}

// MCP mode's load-bearing property is that nothing reaches stderr; here we
// verify the file-only config variant still produces a working logger.
func TestSetup_FileOnly(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, cleanup, err := Setup(Config{
				Level:         level,
				FilePath:      filepath.Join(t.TempDir(), level+".log"),
				MaxSizeMB:     1,
				MaxFiles:      3,
				WriteToStderr: false,
			})
			if err != nil {
				t.Fatalf("Setup: %v", err)
			}
			defer cleanup()

			if logger == nil {
				t.Fatal("Setup returned nil logger")
			}
		})
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"}, // unknown defaults to info
		{"", "INFO"},
	}
	for _, tc := range tests {
		if got := LevelFromString(tc.input).String(); got != tc.want {
			t.Errorf("LevelFromString(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestEnsureLogDir(t *testing.T) {
	if err := EnsureLogDir(); err != nil {
		t.Fatalf("EnsureLogDir: %v", err)
	}

	info, err := os.Stat(DefaultLogDir())
	if err != nil {
		t.Fatalf("stat log dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("log path should be a directory")
	}
}

func TestFindLogFile(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "explicit.log")
		writeLogLines(t, logPath, "x")

		found, err := FindLogFile(logPath)
		if err != nil {
			t.Fatalf("FindLogFile: %v", err)
		}
		if found != logPath {
			t.Errorf("found %s, want %s", found, logPath)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := FindLogFile("/nonexistent/path/to/log.log"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}

// --- RotatingWriter ---

func TestRotatingWriter_ImmediateSyncVisibility(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sync.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	line := []byte(`{"level":"INFO","msg":"visible"}` + "\n")
	n, err := w.Write(line)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(line) {
		t.Errorf("wrote %d bytes, want %d", n, len(line))
	}

	// Immediate sync means the line is on disk before Close.
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(content) != string(line) {
		t.Errorf("on-disk content = %q, want %q", content, line)
	}
}

func TestRotatingWriter_ManualSync(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "manual.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	w.SetImmediateSync(false)

	if _, err := w.Write([]byte("buffered line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), "buffered line") {
		t.Error("synced data should be on disk")
	}
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")

	// 0 MB limit forces a rotation on every write.
	w, err := NewRotatingWriter(logPath, 0, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	chunk := strings.Repeat("x", 2048)
	if _, err := w.Write([]byte(chunk)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := w.Write([]byte(chunk)); err != nil {
		t.Fatalf("second write: %v", err)
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Error("active log file should exist after rotation")
	}
	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Error("rotated file .1 should exist")
	}
}

func TestRotatingWriter_PrunesBeyondMaxFiles(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "prune.log")

	w, err := NewRotatingWriter(logPath, 0, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	chunk := strings.Repeat("y", 1024)
	for i := 0; i < 5; i++ {
		_, _ = w.Write([]byte(chunk))
	}

	// With maxFiles=2 only .1 and .2 may remain.
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("rotation .3 should have been pruned")
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")

	w, err := NewRotatingWriter(logPath, 10, 3)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				line := fmt.Sprintf(`{"writer":%d,"line":%d}`+"\n", id, j)
				_, _ = w.Write([]byte(line))
			}
		}(i)
	}
	wg.Wait()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file should have content")
	}
}

// --- Viewer ---

func TestViewer_ParseLine(t *testing.T) {
	v := NewViewer(ViewerConfig{}, &strings.Builder{})

	t.Run("valid json", func(t *testing.T) {
		entry := v.parseLine(`{"time":"2026-01-15T10:30:00Z","level":"INFO","msg":"classified","intent":"how_to"}`)

		if !entry.IsValid {
			t.Fatal("entry should parse")
		}
		if entry.Level != "INFO" || entry.Msg != "classified" {
			t.Errorf("parsed level=%s msg=%s", entry.Level, entry.Msg)
		}
		if entry.Attrs["intent"] != "how_to" {
			t.Errorf("attrs should carry extra fields, got %v", entry.Attrs)
		}
	})

	t.Run("plain text falls through raw", func(t *testing.T) {
		entry := v.parseLine("panic: not json at all")

		if entry.IsValid {
			t.Error("plain text should not parse")
		}
		if entry.Raw != "panic: not json at all" {
			t.Errorf("Raw = %q", entry.Raw)
		}
	})
}

func TestViewer_LevelFilter(t *testing.T) {
	tests := []struct {
		name        string
		configLevel string
		entryLevel  string
		want        bool
	}{
		{"info passes info", "info", "INFO", true},
		{"info passes error", "info", "ERROR", true},
		{"info blocks debug", "info", "DEBUG", false},
		{"warn blocks info", "warn", "INFO", false},
		{"error passes error", "error", "ERROR", true},
		{"error blocks warn", "error", "WARN", false},
		{"no filter passes debug", "", "DEBUG", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewViewer(ViewerConfig{Level: tc.configLevel}, &strings.Builder{})
			got := v.matchesFilter(LogEntry{IsValid: true, Level: tc.entryLevel})
			if got != tc.want {
				t.Errorf("matchesFilter = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestViewer_PatternFilter(t *testing.T) {
	v := NewViewer(ViewerConfig{
		Pattern: regexp.MustCompile("fetch.*failed"),
	}, &strings.Builder{})

	if !v.matchesFilter(LogEntry{IsValid: true, Raw: "source fetch for reddit failed"}) {
		t.Error("matching line should pass")
	}
	if v.matchesFilter(LogEntry{IsValid: true, Raw: "failed before fetch"}) {
		t.Error("pattern is ordered; reversed line should not pass")
	}
}

func TestViewer_FormatEntry(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &strings.Builder{})

	formatted := v.FormatEntry(LogEntry{
		IsValid: true,
		Time:    ts("2026-01-15T10:30:00Z"),
		Level:   "INFO",
		Msg:     "search_complete",
		Attrs:   map[string]any{"results": 12},
	})

	for _, want := range []string{"10:30:00", "INFO", "search_complete", "results=12"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("formatted entry missing %q: %s", want, formatted)
		}
	}

	raw := v.FormatEntry(LogEntry{Raw: "unparseable"})
	if raw != "unparseable" {
		t.Errorf("invalid entry should format as raw line, got %q", raw)
	}
}

func TestViewer_FormatLevel_PadsAndTruncates(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, &strings.Builder{})

	tests := []struct {
		level string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO "},
		{"warn", "WARN "},
		{"warning", "WARNI"}, // clipped to the 5-column gutter
		{"error", "ERROR"},
	}
	for _, tc := range tests {
		if got := v.formatLevel(tc.level); got != tc.want {
			t.Errorf("formatLevel(%q) = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestViewer_Tail(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "tail.log")
	writeLogLines(t, logPath,
		`{"time":"2026-01-15T10:00:00Z","level":"DEBUG","msg":"one"}`,
		`{"time":"2026-01-15T10:01:00Z","level":"INFO","msg":"two"}`,
		`{"time":"2026-01-15T10:02:00Z","level":"WARN","msg":"three"}`,
		`{"time":"2026-01-15T10:03:00Z","level":"ERROR","msg":"four"}`,
		`{"time":"2026-01-15T10:04:00Z","level":"INFO","msg":"five"}`,
	)

	v := NewViewer(ViewerConfig{}, &strings.Builder{})

	entries, err := v.Tail(logPath, 3)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"three", "four", "five"} {
		if entries[i].Msg != want {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Msg, want)
		}
	}
}

func TestViewer_Tail_FilterApplies(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "filter.log")
	writeLogLines(t, logPath,
		`{"time":"2026-01-15T10:00:00Z","level":"DEBUG","msg":"noise"}`,
		`{"time":"2026-01-15T10:01:00Z","level":"INFO","msg":"more noise"}`,
		`{"time":"2026-01-15T10:02:00Z","level":"ERROR","msg":"the problem"}`,
	)

	v := NewViewer(ViewerConfig{Level: "error"}, &strings.Builder{})

	entries, err := v.Tail(logPath, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 1 || entries[0].Msg != "the problem" {
		t.Errorf("level filter failed, got %v", entries)
	}
}

func TestViewer_Tail_MissingFile(t *testing.T) {
	v := NewViewer(ViewerConfig{}, &strings.Builder{})
	if _, err := v.Tail("/nonexistent/file.log", 10); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestViewer_Print(t *testing.T) {
	var buf strings.Builder
	v := NewViewer(ViewerConfig{NoColor: true}, &buf)

	v.Print([]LogEntry{
		{IsValid: true, Time: ts("2026-01-15T10:00:00Z"), Level: "INFO", Msg: "first"},
		{IsValid: true, Time: ts("2026-01-15T10:01:00Z"), Level: "WARN", Msg: "second"},
	})

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Errorf("Print output missing entries: %s", out)
	}
}
