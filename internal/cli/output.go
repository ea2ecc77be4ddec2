package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/roach88/organizer/internal/ir"
	"github.com/roach88/organizer/internal/item"
	"github.com/roach88/organizer/internal/request"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Request or validation failure (request finished with an error, scenarios failed, invalid document)
	ExitCommandError = 2 // Command error (bad flags, database cannot be opened, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "invalid_argument", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. Text output
// prints data with its String method or fmt's default format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// RequestError reports a request that did not finish cleanly and returns the
// matching ExitError.
func (f *OutputFormatter) RequestError(err error, details any) error {
	code := request.CodeOf(err)
	_ = f.Error(code.String(), err.Error(), details)
	return WrapExitError(ExitFailure, "request failed", err)
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ItemView is the rendering of an item in CLI output. Ids use their string
// form; times are RFC 3339 in UTC.
type ItemView struct {
	ID            string     `json:"id,omitempty"`
	Parent        string     `json:"parent,omitempty"`
	Type          string     `json:"type"`
	Label         string     `json:"label,omitempty"`
	Description   string     `json:"description,omitempty"`
	Start         string     `json:"start,omitempty"`
	End           string     `json:"end,omitempty"`
	OriginalStart string     `json:"original_start,omitempty"`
	Recurrence    *item.Rule `json:"recurrence,omitempty"`
	Details       ir.Object  `json:"details,omitempty"`
}

// NewItemView renders it.
func NewItemView(it item.Item) ItemView {
	return ItemView{
		ID:            it.ID.String(),
		Parent:        it.ParentID.String(),
		Type:          string(it.Type),
		Label:         it.DisplayLabel,
		Description:   it.Description,
		Start:         formatTime(it.Start),
		End:           formatTime(it.End),
		OriginalStart: formatTime(it.OriginalStart),
		Recurrence:    it.Recurrence,
		Details:       it.Details,
	}
}

// ItemList is a command result made of items.
type ItemList struct {
	Items []ItemView `json:"items"`
	Count int        `json:"count"`
}

// NewItemList renders items.
func NewItemList(items []item.Item) ItemList {
	views := make([]ItemView, len(items))
	for i, it := range items {
		views[i] = NewItemView(it)
	}
	return ItemList{Items: views, Count: len(views)}
}

// writeItems prints one line per item: start, type, label and id.
func writeItems(w io.Writer, list ItemList) {
	for _, v := range list.Items {
		start := v.Start
		if start == "" {
			start = "-"
		}
		id := v.ID
		if id == "" {
			id = "(" + v.Parent + ")"
		}
		fmt.Fprintf(w, "%-20s  %-16s  %-24s  %s\n", start, v.Type, v.Label, id)
	}
	fmt.Fprintf(w, "%d item(s)\n", list.Count)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
