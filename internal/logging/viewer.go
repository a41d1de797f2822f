package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// followPollInterval is how often Follow checks the file for new lines.
const followPollInterval = 100 * time.Millisecond

// maxLineBytes bounds a single log line; synthesis payloads logged at debug
// level can exceed bufio's default.
const maxLineBytes = 1024 * 1024

// LogEntry is one parsed line from the JSON log file.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Msg     string         `json:"msg"`
	Attrs   map[string]any `json:"-"` // everything beyond time/level/msg
	Raw     string         `json:"-"` // original line, shown when parsing fails
	IsValid bool           `json:"-"`
}

// ViewerConfig filters and styles viewer output.
type ViewerConfig struct {
	Level   string         // minimum level to show; empty shows all
	Pattern *regexp.Regexp // raw-line regexp filter; nil shows all
	NoColor bool
}

// Viewer reads, filters, and formats the devseek log file for the `logs`
// subcommand.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
}

// NewViewer creates a Viewer printing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{config: cfg, out: out}
}

// Tail returns the filtered entries among the last n lines of the file at
// path. The whole file is scanned; at the rotation cap of 10MB that is
// cheaper than maintaining a reverse-seek reader.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, maxLineBytes), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	var entries []LogEntry
	for _, line := range lines {
		if entry := v.parseLine(line); v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow streams entries appended to the file at path into the channel
// until ctx is cancelled. Existing content is skipped; only new lines are
// delivered. Polling is used rather than inotify so follow mode works the
// same across platforms and network filesystems.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(followPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := v.drainNewLines(ctx, reader, entries); err != nil {
				return err
			}
		}
	}
}

// drainNewLines reads every complete line currently available and forwards
// the ones passing the filters.
func (v *Viewer) drainNewLines(ctx context.Context, reader *bufio.Reader, entries chan<- LogEntry) error {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil // nothing more buffered yet
		}

		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			continue
		}

		entry := v.parseLine(line)
		if !v.matchesFilter(entry) {
			continue
		}
		select {
		case entries <- entry:
		case <-ctx.Done():
			return nil
		}
	}
}

// Print writes formatted entries to the viewer's output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// FormatEntry renders one entry as "HH:MM:SS.mmm LEVEL msg k=v ...".
// Unparseable lines pass through raw.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	var b strings.Builder
	b.WriteString(entry.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(v.formatLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Msg)
	for k, val := range entry.Attrs {
		fmt.Fprintf(&b, " %s=%v", k, val)
	}
	return b.String()
}

// parseLine decodes one JSON log line. Lines that are not JSON come back
// with IsValid false and the raw text preserved.
func (v *Viewer) parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return entry
	}
	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = data["level"].(string)
	entry.Msg, _ = data["msg"].(string)

	entry.Attrs = make(map[string]any)
	for k, val := range data {
		switch k {
		case "time", "level", "msg":
		default:
			entry.Attrs[k] = val
		}
	}
	return entry
}

// matchesFilter applies the level and pattern filters.
func (v *Viewer) matchesFilter(entry LogEntry) bool {
	if v.config.Level != "" &&
		LevelFromString(entry.Level) < LevelFromString(v.config.Level) {
		return false
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

// formatLevel pads the level to a fixed 5 columns and colors it unless
// NoColor is set.
func (v *Viewer) formatLevel(level string) string {
	padded := strings.ToUpper(level)
	if len(padded) > 5 {
		padded = padded[:5]
	}
	padded = fmt.Sprintf("%-5s", padded)

	if v.config.NoColor {
		return padded
	}

	switch strings.ToLower(level) {
	case "debug":
		return "\033[90m" + padded + "\033[0m"
	case "info":
		return "\033[32m" + padded + "\033[0m"
	case "warn", "warning":
		return "\033[33m" + padded + "\033[0m"
	case "error":
		return "\033[31m" + padded + "\033[0m"
	default:
		return padded
	}
}
