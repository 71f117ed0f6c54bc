package cmd

import (
	"strings"

	"github.com/grovetools/vigil/cli"
	"github.com/grovetools/vigil/logging"
	"github.com/grovetools/vigil/monitor"
	"github.com/spf13/cobra"
)

// NewSignaturesCmd prints the effective stall signature table.
func NewSignaturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signatures",
		Short: "Show the stall signatures in evaluation order",
		Long: `Shows the effective signature table: custom signatures from the
configuration first, then the built-in ones unless replaced. The first
signature that matches a captured line decides the classification.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			cfg, err := cli.LoadConfig(opts)
			if err != nil {
				return err
			}

			signatures, err := monitor.CompileSignatures(cfg.Signatures.Custom, cfg.Signatures.ReplaceDefaults)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.JSONOutput {
				return writeJSON(out, signatures)
			}

			pretty := logging.NewPrettyLogger().WithWriter(out)
			header := []string{"LABEL", "ACTION", "INPUTS"}
			widths := make([]int, len(header))
			for i, h := range header {
				widths[i] = len(h)
			}
			rows := make([][]string, 0, len(signatures))
			for _, sig := range signatures {
				action, inputs := "inject", "global"
				switch {
				case sig.Escalate:
					action, inputs = "escalate", "-"
				case sig.Fallbacks != nil:
					inputs = formatInputs(sig.Fallbacks)
				}
				row := []string{sig.Label, action, inputs}
				for i, cell := range row {
					widths[i] = max(widths[i], len(cell))
				}
				rows = append(rows, row)
			}

			pretty.Row(widths, header...)
			pretty.Divider()
			for i, row := range rows {
				pretty.Row(widths, row...)
				pretty.Field("  pattern", signatures[i].Pattern)
			}
			pretty.Divider()
			pretty.Field("Global inputs", formatInputs(cfg.Recovery.Fallbacks))
			return nil
		},
	}
}

// formatInputs quotes each input so the empty string (Enter alone) is visible.
func formatInputs(inputs []string) string {
	if len(inputs) == 0 {
		return "none"
	}
	quoted := make([]string, len(inputs))
	for i, in := range inputs {
		quoted[i] = `"` + in + `"`
	}
	return strings.Join(quoted, " ")
}
