package output

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// ErrorOutput represents a structured error for JSON output.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

// describe flattens err into an ErrorDetail. The message of a classified
// error includes its cause so wrapped context is not lost.
func describe(err error) ErrorDetail {
	var ge *gateerr.GateError
	if !errors.As(err, &ge) {
		return ErrorDetail{
			Code:     gateerr.ErrGeneral.Code,
			Message:  err.Error(),
			ExitCode: gateerr.ExitGeneral,
		}
	}

	msg := ge.Message
	if ge.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, ge.Cause)
	}
	return ErrorDetail{
		Code:       ge.Code,
		Message:    msg,
		Details:    ge.Details,
		Suggestion: ge.Suggestion,
		ExitCode:   ge.ExitCode,
	}
}

// FormatError formats an error for display.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}

	d := describe(err)
	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: d})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", d.Message)

	if len(d.Details) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, k := range slices.Sorted(maps.Keys(d.Details)) {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", d.Suggestion)
	}

	_, writeErr := io.WriteString(w, sb.String())
	return writeErr
}
