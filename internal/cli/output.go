package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Session completed, all scenarios passed
	ExitFailure      = 1 // Session or scenario failure
	ExitCommandError = 2 // Invalid config, journal not found, listen address in use
	ExitAborted      = 3 // Session aborted by the operator
)

// Error codes carried in JSON error responses.
const (
	ErrCodeAborted    = "E_ABORTED"
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// ExitError is an error with a process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
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

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope of every command result.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes why a command did not succeed.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter writes a command result either as a JSON envelope or as
// text rendered by the command.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func newFormatter(opts *RootOptions, w io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: w}
}

// JSON reports whether results are written as JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data with status "ok". In text mode text renders it; a nil
// text prints data with fmt.
func (f *OutputFormatter) Success(data any, text func(io.Writer)) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	f.render(data, text)
	return nil
}

// Failure writes data with status "error" and returns an ExitError carrying
// exitCode, so commands can end with `return f.Failure(...)`.
func (f *OutputFormatter) Failure(exitCode int, errCode, message string, data any, text func(io.Writer)) error {
	if f.JSON() {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: errCode, Message: message},
		}); err != nil {
			return err
		}
	} else {
		f.render(data, text)
	}
	return NewExitError(exitCode, message)
}

func (f *OutputFormatter) render(data any, text func(io.Writer)) {
	if text == nil {
		fmt.Fprintln(f.Writer, data)
		return
	}
	text(f.Writer)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
