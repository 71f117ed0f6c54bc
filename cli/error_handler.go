package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/vigil/errors"
)

// Exit statuses for failures that produce no report.
const (
	ExitFailure     = 1
	ExitConfigError = 2
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints err with a hint for the known codes and returns the process
// exit status. Configuration errors exit 2; anything else exits 1.
func (h *ErrorHandler) Handle(err error) int {
	if err == nil {
		return 0
	}
	vErr, _ := errors.As(err)

	fmt.Fprintf(h.Out, "❌ Error: %v\n", err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		if vErr != nil && vErr.Details["kind"] == "registry" {
			fmt.Fprintf(h.Out, "Create the registry file or point 'registry' in vigil.yml at an existing one.\n")
		} else {
			fmt.Fprintf(h.Out, "Pass --config, set VIGIL_CONFIG, or create vigil.yml in this directory.\n")
		}
	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(h.Out, "Check the file for syntax errors; 'vigil config schema' prints the accepted shape.\n")
	case errors.ErrCodeConfigValidation:
		if vErr != nil && vErr.Details["field"] != nil {
			fmt.Fprintf(h.Out, "Fix the '%v' setting in vigil.yml.\n", vErr.Details["field"])
		} else {
			fmt.Fprintf(h.Out, "Fix the configuration or registry and run again.\n")
		}
	case errors.ErrCodeCommandNotFound:
		fmt.Fprintf(h.Out, "Required command not found. Make sure tmux and git are installed and on PATH.\n")
	case errors.ErrCodeReportNotFound:
		fmt.Fprintf(h.Out, "Run 'vigil reports list' to see persisted runs.\n")
	case errors.ErrCodeInvalidInput:
		fmt.Fprintf(h.Out, "Run the command with --help for accepted values.\n")
	}

	if h.Verbose && vErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", vErr.ToJSON())
	}

	if errors.IsConfiguration(err) {
		return ExitConfigError
	}
	return ExitFailure
}
