package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// asDevseek pulls a *DevseekError out of an error chain.
func asDevseek(err error) (*DevseekError, bool) {
	var de *DevseekError
	ok := stderrors.As(err, &de)
	return de, ok
}

// FormatForUser renders an error for interactive display. Structured
// errors show a suggestion when one is set and close with the error
// code; other errors pass through unchanged.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}
	de, ok := asDevseek(err)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", de.Message)
	if de.Suggestion != "" {
		fmt.Fprintf(&b, "\nSuggestion: %s\n", de.Suggestion)
	}
	fmt.Fprintf(&b, "\n[%s]", de.Code)
	if debug && de.Cause != nil {
		fmt.Fprintf(&b, "\ncause: %s", de.Cause)
	}
	return b.String()
}

// FormatForCLI renders an error for terminal output, one fact per line.
// Plain errors get a single Error line; structured errors add the hint
// and code so the message can be looked up.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	de, ok := asDevseek(err)
	if !ok {
		return fmt.Sprintf("Error: %s\n", err)
	}

	lines := []string{fmt.Sprintf("Error: %s", de.Message)}
	if de.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  Hint: %s", de.Suggestion))
	}
	lines = append(lines, fmt.Sprintf("  Code: %s", de.Code))
	return strings.Join(lines, "\n") + "\n"
}

// jsonError is the wire shape used by FormatJSON.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a machine-readable rendering of the error. Plain
// errors are wrapped as internal before encoding.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	de, ok := asDevseek(err)
	if !ok {
		de = Wrap(ErrCodeInternal, err)
	}

	out := jsonError{
		Code:       de.Code,
		Message:    de.Message,
		Category:   string(de.Category),
		Severity:   string(de.Severity),
		Details:    de.Details,
		Suggestion: de.Suggestion,
		Retryable:  de.Retryable,
	}
	if de.Cause != nil {
		out.Cause = de.Cause.Error()
	}
	return json.Marshal(out)
}

// FormatForLog flattens an error into attributes for structured
// logging. Detail keys are prefixed so they cannot collide with the
// fixed fields.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}
	de, ok := asDevseek(err)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	fields := map[string]any{
		"error_code": de.Code,
		"message":    de.Message,
		"category":   string(de.Category),
		"severity":   string(de.Severity),
		"retryable":  de.Retryable,
	}
	if de.Cause != nil {
		fields["cause"] = de.Cause.Error()
	}
	if de.Suggestion != "" {
		fields["suggestion"] = de.Suggestion
	}
	for k, v := range de.Details {
		fields["detail_"+k] = v
	}
	return fields
}
