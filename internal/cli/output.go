package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	odatasql "github.com/nlstn/go-odata-sql"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The request could not be translated or executed
	ExitCommandError = 2 // Invalid flags, configuration or model
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
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
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

type statementOutput struct {
	SQL          string        `json:"sql"`
	Params       []paramOutput `json:"params"`
	ServerPaging bool          `json:"serverPaging,omitempty"`
}

type paramOutput struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

func newStatementOutput(stmt *odatasql.Statement) statementOutput {
	out := statementOutput{
		SQL:          stmt.SQL,
		Params:       make([]paramOutput, len(stmt.Params)),
		ServerPaging: stmt.ServerPaging,
	}
	for i, p := range stmt.Params {
		out.Params[i] = paramOutput{Value: p.Value, Type: string(p.Type)}
	}
	return out
}

type resultOutput struct {
	Rows     []map[string]any `json:"rows"`
	Count    *int64           `json:"count,omitempty"`
	NextLink string           `json:"nextLink,omitempty"`
}

type errorOutput struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

// formatter writes command results as text or JSON.
type formatter struct {
	format string
	w      io.Writer
}

func (f *formatter) json(v any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *formatter) statement(stmt *odatasql.Statement) error {
	if f.format == "json" {
		return f.json(newStatementOutput(stmt))
	}
	if _, err := fmt.Fprintln(f.w, stmt.SQL); err != nil {
		return err
	}
	for i, p := range stmt.Params {
		if _, err := fmt.Fprintf(f.w, "[%d] %s %v\n", i+1, p.Type, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func (f *formatter) result(res *odatasql.Result) error {
	if f.format == "json" {
		rows := res.Rows
		if rows == nil {
			rows = []map[string]any{}
		}
		return f.json(resultOutput{Rows: rows, Count: res.Count, NextLink: res.NextLink})
	}

	if len(res.Rows) > 0 {
		tw := tabwriter.NewWriter(f.w, 0, 4, 2, ' ', 0)
		labels := make([]string, len(res.Statement.Columns))
		for i, c := range res.Statement.Columns {
			labels[i] = c.Label
			fmt.Fprint(tw, c.Label, "\t")
		}
		fmt.Fprintln(tw)
		for _, row := range res.Rows {
			for _, label := range labels {
				fmt.Fprint(tw, cell(row[label]), "\t")
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if res.Count != nil {
		if _, err := fmt.Fprintf(f.w, "count: %d\n", *res.Count); err != nil {
			return err
		}
	}
	if res.NextLink != "" {
		if _, err := fmt.Fprintf(f.w, "next: %s\n", res.NextLink); err != nil {
			return err
		}
	}
	return nil
}

// failure reports a translation or execution error and returns the error
// the command exits with.
func (f *formatter) failure(err error) error {
	if f.format == "json" {
		var out errorOutput
		out.Error.Code = errorCode(err)
		out.Error.Message = err.Error()
		out.Error.Status = odatasql.MapErrorToHTTPStatus(err)
		if encErr := f.json(out); encErr != nil {
			return encErr
		}
	}
	return WrapExitError(ExitFailure, "request failed", err)
}

func errorCode(err error) string {
	var ie *odatasql.InterceptorError
	if errors.As(err, &ie) && ie.StatusCode != 0 {
		return strings.ReplaceAll(http.StatusText(ie.StatusCode), " ", "")
	}
	var oe *odatasql.ODataError
	if errors.As(err, &oe) {
		return string(oe.Code)
	}
	return string(odatasql.ErrorCodeInternalServerError)
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
