package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/grovetools/vigil/cli"
	"github.com/grovetools/vigil/pkg/profiling"
	"github.com/grovetools/vigil/version"
	"github.com/spf13/cobra"
)

// ExitError ends the process with Code without printing anything. Commands
// return it after they have already written their own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd assembles the vigil command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(profiling.NewCobraProfiler())
}

func newRootCmd(profiler *profiling.CobraProfiler) *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"vigil",
		"Detect stalled agent sessions, recover them, and verify the work is real",
	)
	rootCmd.Long = `Vigil checks every tracked project in one batch run: it samples the
project's tmux session, classifies it as active, stalled or unknown, injects
fallback inputs into stalled sessions, and confirms progress against git.

Examples:
  vigil run
  vigil run --mode quick --only 'web-*'
  vigil reports list --health needs-attention
  vigil reports show latest`

	cli.SetVersionTemplate(rootCmd, version.GetInfo())
	profiler.AddFlags(rootCmd)
	rootCmd.PersistentPreRunE = profiler.PreRun

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewReportsCmd())
	rootCmd.AddCommand(NewSignaturesCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("vigil"))

	cli.ApplyStyledHelpRecursive(rootCmd)
	return rootCmd
}

// Execute runs the command tree and returns the process exit status.
func Execute() int {
	profiler := profiling.NewCobraProfiler()
	defer profiler.Finish(os.Stderr)

	rootCmd := newRootCmd(profiler)
	executed, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	var exit *ExitError
	if stderrors.As(err, &exit) {
		return exit.Code
	}

	if executed == nil {
		executed = rootCmd
	}
	return cli.NewErrorHandler(cli.GetOptions(executed).Verbose).Handle(err)
}
