package cmd

import (
	"fmt"
	"time"

	"github.com/grovetools/vigil/cli"
	"github.com/grovetools/vigil/errors"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/pkg/models"
	"github.com/grovetools/vigil/report"
	"github.com/spf13/cobra"
)

// NewReportsCmd creates the reports command group.
func NewReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse persisted run reports",
	}
	cmd.AddCommand(newReportsListCmd())
	cmd.AddCommand(newReportsShowCmd())
	return cmd
}

func newReportsListCmd() *cobra.Command {
	var (
		limit  int
		offset int
		health string
		mode   string
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List past runs, newest first",
		Long: `Lists past runs from the history index, or from the report files when
history is disabled.

Examples:
  vigil reports list --limit 5
  vigil reports list --health needs-attention --since 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}

			filter := models.HistoryFilter{
				Health: models.Health(health),
				Limit:  limit,
				Offset: offset,
			}
			if mode != "" {
				m, err := models.ParseRunMode(mode)
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid --mode")
				}
				filter.Mode = m
			}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}

			page, err := report.FromConfig(cfg.Reports).Runs(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.JSONOutput {
				return writeJSON(out, page)
			}

			pretty := logging.NewPrettyLogger().WithWriter(out)
			if len(page.Items) == 0 {
				pretty.InfoPretty("No runs recorded")
				return nil
			}

			header := []string{"RUN", "TIME", "MODE", "HEALTH", "CHECKED", "STUCK", "GIT ERRORS"}
			rows := make([][]string, 0, len(page.Items))
			widths := make([]int, len(header))
			for i, h := range header {
				widths[i] = len(h)
			}
			for _, run := range page.Items {
				s := run.Summary.Data
				row := []string{
					shortID(run.RunID),
					run.Timestamp.Local().Format("2006-01-02 15:04:05"),
					string(run.Mode),
					string(run.Health),
					fmt.Sprint(s.ProjectsChecked),
					fmt.Sprint(s.StillStuckCount),
					fmt.Sprint(s.GitErrorCount),
				}
				for i, cell := range row {
					widths[i] = max(widths[i], len(cell))
				}
				rows = append(rows, row)
			}

			pretty.Row(widths, header...)
			pretty.Divider()
			for _, row := range rows {
				row[3] = pretty.State(row[3])
				pretty.Row(widths, row...)
			}
			if page.HasNext {
				pretty.InfoPretty(fmt.Sprintf("%d of %d shown; use --offset %d for more", len(page.Items), page.Total, page.Offset+len(page.Items)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum runs to list (default 20)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many runs")
	cmd.Flags().StringVar(&health, "health", "", "Only runs with this health [excellent, needs-attention]")
	cmd.Flags().StringVar(&mode, "mode", "", "Only runs in this mode [full, quick, verify-only, recovery-only]")
	cmd.Flags().DurationVar(&since, "since", 0, "Only runs newer than this, e.g. 24h")

	return cmd
}

func newReportsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id|latest>",
		Short: "Show one persisted report",
		Long: `Shows a report by run ID. Any unambiguous prefix of the ID works, as
does "latest".

Examples:
  vigil reports show latest
  vigil reports show 3f2b8c1e --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}

			r, path, err := report.FromConfig(cfg.Reports).Find(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if opts.JSONOutput {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			printReport(cmd.OutOrStdout(), r, path)
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
