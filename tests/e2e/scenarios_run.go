package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/harness"
	"github.com/grovetools/vigil/pkg/models"
)

// VerifyOnlyHealthyScenario runs verify-only against a single committed
// repository and expects an excellent verdict.
func VerifyOnlyHealthyScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vigil-verify-only-healthy",
		Description: "A committed repository verifies cleanly and the run exits 0.",
		Tags:        []string{"vigil", "run"},
		Steps: []harness.Step{
			harness.NewStep("Verify a healthy project", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				projectDir, err := setupProject(ctx, "alpha")
				if err != nil {
					return err
				}
				workDir := ctx.NewDir("work")
				cfgPath, err := writeConfig(workDir, filepath.Join(workDir, "reports"), [][2]string{{"alpha", projectDir}}, "")
				if err != nil {
					return err
				}

				cmd := ctx.Command(vigilBinary, "run", "--config", cfgPath, "--mode", "verify-only", "--json").Dir(workDir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "healthy verify-only run should exit 0"); err != nil {
					return err
				}

				var report models.MonitoringReport
				if err := json.Unmarshal([]byte(result.Stdout), &report); err != nil {
					return fmt.Errorf("failed to parse report JSON: %w", err)
				}
				if err := assert.Equal(models.HealthExcellent, report.Summary.OverallHealth, "health should be excellent"); err != nil {
					return err
				}
				return assert.Equal("ok", report.Projects["alpha"].GitCheck, "git check should pass")
			}),
		},
	}
}

// VerifyOnlyIsolationScenario mixes a healthy repository with a missing one.
// The missing project fails on its own and the healthy one is still checked.
func VerifyOnlyIsolationScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "vigil-verify-only-isolation",
		Description: "A broken project is isolated, reported, and turns the verdict to needs-attention.",
		Tags:        []string{"vigil", "run"},
		Steps: []harness.Step{
			harness.NewStep("Run verify-only over a healthy and a missing project", func(ctx *harness.Context) error {
				vigilBinary, err := findVigilBinary()
				if err != nil {
					return err
				}

				projectDir, err := setupProject(ctx, "alpha")
				if err != nil {
					return err
				}
				workDir := ctx.NewDir("work")
				reportsDir := filepath.Join(workDir, "reports")
				cfgPath, err := writeConfig(workDir, reportsDir, [][2]string{
					{"alpha", projectDir},
					{"ghost", filepath.Join(workDir, "does-not-exist")},
				}, "")
				if err != nil {
					return err
				}

				cmd := ctx.Command(vigilBinary, "run", "--config", cfgPath, "--mode", "verify-only", "--json").Dir(workDir)
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(1, result.ExitCode, "a git error should exit 1"); err != nil {
					return err
				}

				var report models.MonitoringReport
				if err := json.Unmarshal([]byte(result.Stdout), &report); err != nil {
					return fmt.Errorf("failed to parse report JSON: %w", err)
				}
				if err := assert.Equal(1, report.Summary.GitErrorCount, "exactly one git error"); err != nil {
					return err
				}
				if err := assert.Equal("ok", report.Projects["alpha"].GitCheck, "healthy project still verified"); err != nil {
					return err
				}
				if err := assert.Equal("error", report.Projects["ghost"].GitCheck, "missing project reported"); err != nil {
					return err
				}

				files, err := filepath.Glob(filepath.Join(reportsDir, "health-*.json"))
				if err != nil {
					return err
				}
				if err := assert.Equal(1, len(files), "one report should be persisted"); err != nil {
					return err
				}

				show := ctx.Command(vigilBinary, "reports", "show", report.RunID[:8], "--config", cfgPath).Dir(workDir)
				shown := show.Run()
				ctx.ShowCommandOutput(show.String(), shown.Stdout, shown.Stderr)

				if err := assert.Equal(0, shown.ExitCode, "reports show should exit 0"); err != nil {
					return err
				}
				if err := assert.Contains(shown.Stdout, "ghost", "report should list the missing project"); err != nil {
					return err
				}
				return assert.Contains(shown.Stdout, "needs-attention", "report should carry the verdict")
			}),
		},
	}
}
