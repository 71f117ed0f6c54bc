package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/grovetools/vigil/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStandardCommandFlags(t *testing.T) {
	cmd := NewStandardCommand("vigil", "Session health")
	cmd.RunE = func(cmd *cobra.Command, args []string) error { return nil }
	cmd.SetArgs([]string{"-v", "--json", "--config", "/etc/vigil.yml"})
	require.NoError(t, cmd.Execute())

	opts := GetOptions(cmd)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "/etc/vigil.yml", opts.ConfigFile)
}

func TestErrorHandlerExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		hint string
	}{
		{"missing config", errors.ConfigNotFound("/tmp/vigil.yml"), ExitConfigError, "VIGIL_CONFIG"},
		{"missing registry", errors.ConfigNotFound("/tmp/projects.yml").WithDetail("kind", "registry"), ExitConfigError, "registry file"},
		{"bad field", errors.New(errors.ErrCodeConfigValidation, "workers must be between 1 and 64").WithDetail("field", "workers"), ExitConfigError, "'workers'"},
		{"wrapped config error", fmt.Errorf("loading: %w", errors.ConfigInvalid("bad yaml")), ExitConfigError, "syntax"},
		{"missing report", errors.New(errors.ErrCodeReportNotFound, "no report matches 'abc'"), ExitFailure, "vigil reports list"},
		{"plain error", fmt.Errorf("boom"), ExitFailure, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ErrorHandler{Out: &buf}
			assert.Equal(t, tt.code, h.Handle(tt.err))
			assert.Contains(t, buf.String(), tt.hint)
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	h.Handle(errors.ConfigNotFound("/tmp/vigil.yml"))
	assert.Contains(t, buf.String(), `"code": "CONFIG_NOT_FOUND"`)
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("vigil", "Session health detection and recovery")
	root.AddCommand(&cobra.Command{Use: "run", Short: "Run one monitoring pass", Run: func(*cobra.Command, []string) {}})
	ApplyStyledHelpRecursive(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "VIGIL")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "Run one monitoring pass")
}

func TestParseChoices(t *testing.T) {
	desc, choices := parseChoices("Run mode: full, quick, verify-only, or recovery-only")
	assert.Equal(t, "Run mode:", desc)
	assert.Equal(t, []string{"full", "quick", "verify-only", "recovery-only"}, choices)

	desc, choices = parseChoices("Phases to run [full, quick, verify-only, recovery-only]")
	assert.Equal(t, "Phases to run", desc)
	assert.Equal(t, []string{"full", "quick", "verify-only", "recovery-only"}, choices)

	desc, choices = parseChoices("Only these projects")
	assert.Equal(t, "Only these projects", desc)
	assert.Nil(t, choices)
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "keep\nbreaks", wrapText("keep\nbreaks", 40))
}
