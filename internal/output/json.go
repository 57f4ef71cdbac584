package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klytics/xlprompt/cmd/version"
	"github.com/klytics/xlprompt/internal/errs"
)

// Exit codes for consistent error reporting.
const (
	ExitOK          = 0 // success
	ExitUserError   = 1 // bad flags, unreadable workbook, unknown sheet or format
	ExitSystemError = 2 // IO error, anything unexpected
)

// JSONResult is the standard JSON output envelope for all commands.
type JSONResult struct {
	OK      bool        `json:"ok"`
	Command string      `json:"command"`
	Version string      `json:"version"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Code    int         `json:"code,omitempty"`
}

// Stdout is where JSON results are written.
var Stdout io.Writer = os.Stdout

// PrintJSON writes a standard success JSON result to stdout.
func PrintJSON(cmd string, data interface{}) error {
	return WriteJSON(Stdout, cmd, data)
}

// WriteJSON writes a standard success JSON result to w.
func WriteJSON(w io.Writer, cmd string, data interface{}) error {
	return encode(w, JSONResult{
		OK:      true,
		Command: cmd,
		Version: version.Version,
		Data:    data,
	})
}

// PrintJSONError writes a standard error JSON result to stdout.
func PrintJSONError(cmd string, err error, code int) error {
	return WriteJSONError(Stdout, cmd, err, code)
}

// WriteJSONError writes a standard error JSON result to w.
func WriteJSONError(w io.Writer, cmd string, err error, code int) error {
	result := JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    code,
	}
	if kind := errs.KindOf(err); kind != errs.Other {
		result.Kind = kind.String()
	}
	if encErr := encode(w, result); encErr != nil {
		return fmt.Errorf("could not encode JSON error: %w", encErr)
	}
	return nil
}

// ExitCode maps an error to a process exit code. Caller mistakes such as a
// missing file or an unknown format are user errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errs.IsCallerError(err):
		return ExitUserError
	default:
		return ExitSystemError
	}
}

func encode(w io.Writer, v JSONResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
