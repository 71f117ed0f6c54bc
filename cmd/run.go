package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/grovetools/vigil/cli"
	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/git"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/monitor"
	"github.com/grovetools/vigil/notify"
	"github.com/grovetools/vigil/oracle"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/grovetools/vigil/pkg/tmux"
	"github.com/grovetools/vigil/registry"
	"github.com/grovetools/vigil/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command, also reachable as "check".
func NewRunCmd() *cobra.Command {
	var (
		mode string
		only []string
	)

	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"check"},
		Short:   "Run one monitoring pass over every tracked project",
		Long: `Samples, classifies, recovers and verifies every tracked project, then
writes a report. Exits 0 when the fleet is excellent, 1 when it needs
attention and 2 on a configuration error.

Examples:
  vigil run
  vigil check --mode verify-only
  vigil run --only 'api-*' --only '!api-legacy' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)

			runMode, err := models.ParseRunMode(mode)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid --mode").
					WithDetail("field", "mode")
			}

			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}

			m, err := buildMonitor(cfg, only)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := m.Run(ctx, runMode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.JSONOutput {
				if err := writeJSON(out, result.Report); err != nil {
					return err
				}
			} else {
				printReport(out, result.Report, result.ReportPath)
				if result.PersistErr != nil {
					logging.NewPrettyLogger().WithWriter(out).ErrorPretty("Report not saved", result.PersistErr)
				}
			}

			if code := result.ExitCode(); code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(models.ModeFull),
		"Phases to run [full, quick, verify-only, recovery-only]")
	cmd.Flags().StringArrayVar(&only, "only", nil,
		"Only check projects matching this pattern (repeatable, prefix with ! to exclude)")

	return cmd
}

// buildMonitor wires the production collaborators described by cfg.
func buildMonitor(cfg *config.Config, only []string) (*monitor.Monitor, error) {
	src, err := registry.FromConfig(cfg, only)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return nil, err
	}

	opts, err := monitor.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	deps := monitor.Deps{
		Registry: src,
		Sessions: sessionIO(),
		VCS:      git.NewInspector(),
		Notifier: notifier,
		Store:    report.FromConfig(cfg.Reports),
	}
	if checker := oracle.FromConfig(cfg.Oracle); checker != nil {
		deps.Oracle = checker
	}

	return monitor.New(deps, opts)
}

// sessionIO returns the tmux client, or a stand-in that fails every call
// when tmux is not installed. Verification still runs without tmux and each
// session is then reported as unknown.
func sessionIO() monitor.SessionIO {
	client, err := tmux.NewClient()
	if err != nil {
		logging.NewLogger("vigil").WithError(err).Warn("tmux unavailable, sessions will be reported as unknown")
		return unavailableSessions{err: errors.Wrap(err, errors.ErrCodeCommandNotFound, "tmux unavailable")}
	}
	return client
}

type unavailableSessions struct {
	err error
}

func (u unavailableSessions) Capture(context.Context, string) ([]string, error) {
	return nil, u.err
}

func (u unavailableSessions) SendKeys(context.Context, string, string) error {
	return u.err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport renders a report as a per-project table followed by the
// summary and the verdict.
func printReport(w io.Writer, r *models.MonitoringReport, path string) {
	pretty := logging.NewPrettyLogger().WithWriter(w)

	names := make([]string, 0, len(r.Projects))
	for name := range r.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	header := []string{"PROJECT", "SESSION", "GIT", "STATE", "RECOVERY"}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		st := r.Projects[name]
		row := []string{name, st.Session, st.GitCheck, st.Classification, st.Recovery}
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
		rows = append(rows, row)
	}

	pretty.Row(widths, header...)
	pretty.Divider()
	for _, row := range rows {
		pretty.Row(widths, row[0], row[1], pretty.State(row[2]), pretty.State(row[3]), pretty.State(row[4]))
	}
	if len(rows) == 0 {
		pretty.InfoPretty("No projects checked")
	}
	pretty.Divider()

	s := r.Summary
	pretty.Field("Run", r.RunID)
	pretty.Field("Mode", r.Mode)
	pretty.Field("Checked", s.ProjectsChecked)
	if s.StalledCount > 0 || s.RecoveredCount > 0 || s.StillStuckCount > 0 {
		pretty.Field("Stalled", fmt.Sprintf("%d (recovered %d, still stuck %d)", s.StalledCount, s.RecoveredCount, s.StillStuckCount))
	}
	if s.UnknownCount > 0 {
		pretty.Field("Unknown", s.UnknownCount)
	}
	if s.GitErrorCount > 0 {
		pretty.Field("Git errors", s.GitErrorCount)
	}

	if e := r.Escalation; e != nil {
		if e.Delivered {
			pretty.WarnPretty(fmt.Sprintf("Escalated %s", strings.Join(e.SessionIDs, ", ")))
		} else {
			pretty.ErrorPretty("Escalation not delivered", fmt.Errorf("%s", e.Error))
		}
	}
	if o := r.Oracle; o != nil && o.Checked && !o.OK {
		pretty.ErrorPretty("Status oracle failed", fmt.Errorf("%s", o.Error))
	}

	if path != "" {
		pretty.Path("Report", path)
	}

	if s.OverallHealth == models.HealthExcellent {
		pretty.Success(string(s.OverallHealth))
	} else {
		pretty.ErrorPretty(string(s.OverallHealth), nil)
	}
}
